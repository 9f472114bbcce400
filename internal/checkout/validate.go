package checkout

import (
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// ValidationError reports invalid form input as field -> message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := slices.Sorted(maps.Keys(e.Fields))
	return "invalid " + strings.Join(fields, ", ")
}

func (e *ValidationError) merge(other *ValidationError) *ValidationError {
	if other == nil {
		return e
	}
	if e == nil {
		return other
	}
	for k, v := range other.Fields {
		e.Fields[k] = v
	}
	return e
}

// ShippingDetails is the delivery address form.
type ShippingDetails struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,loose_email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required,pincode"`
}

// PaymentMethod is how an order is paid.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCOD  PaymentMethod = "cod"
)

// Payment is the payment form. Only the fields of the chosen method are
// checked.
type Payment struct {
	Method     PaymentMethod `json:"method"`
	CardNumber string        `json:"cardNumber"`
	CardName   string        `json:"cardName"`
	CardExpiry string        `json:"cardExpiry"`
	CardCVV    string        `json:"cardCvv"`
	UPIID      string        `json:"upiId"`
}

type cardForm struct {
	Number string `json:"cardNumber" validate:"required,card_number"`
	Name   string `json:"cardName" validate:"required"`
	Expiry string `json:"cardExpiry" validate:"required,card_expiry"`
	CVV    string `json:"cardCvv" validate:"required,cvv"`
}

type upiForm struct {
	ID string `json:"upiId" validate:"required,upi_id"`
}

var (
	looseEmailRe = regexp.MustCompile(`\S+@\S+\.\S+`)
	phoneRe      = regexp.MustCompile(`^\d{10}$`)
	pincodeRe    = regexp.MustCompile(`^\d{6}$`)
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	cardExpiryRe = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	upiIDRe      = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
	whitespaceRe = regexp.MustCompile(`\s`)
)

// messages maps "field:tag" to the text shown next to the form field.
var messages = map[string]string{
	"email:loose_email":      "Please enter a valid email address",
	"phone:phone":            "Please enter a valid 10-digit phone number",
	"pincode:pincode":        "Please enter a valid 6-digit pincode",
	"cardNumber:required":    "Card number is required",
	"cardNumber:card_number": "Please enter a valid 16-digit card number",
	"cardName:required":      "Name on card is required",
	"cardExpiry:required":    "Expiry date is required",
	"cardExpiry:card_expiry": "Please use MM/YY format",
	"cardCvv:required":       "CVV is required",
	"cardCvv:cvv":            "Invalid CVV",
	"upiId:required":         "UPI ID is required",
	"upiId:upi_id":           "Please enter a valid UPI ID",
	"method:oneof":           "Please choose a payment method",
}

// FormValidator checks checkout forms.
type FormValidator struct {
	v *validator.Validate
}

// NewFormValidator registers the checkout rules on a fresh validator.
func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]*regexp.Regexp{
		"loose_email": looseEmailRe,
		"phone":       phoneRe,
		"pincode":     pincodeRe,
		"card_expiry": cardExpiryRe,
		"cvv":         cvvRe,
		"upi_id":      upiIDRe,
	}
	for tag, re := range rules {
		mustRegister(v, tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	mustRegister(v, "card_number", func(fl validator.FieldLevel) bool {
		return cardNumberRe.MatchString(whitespaceRe.ReplaceAllString(fl.Field().String(), ""))
	})

	return &FormValidator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Shipping validates the shipping form.
func (f *FormValidator) Shipping(d ShippingDetails) error {
	if verr := f.check(d); verr != nil {
		return verr
	}
	return nil
}

// Payment validates the fields of the chosen payment method. Cash on
// delivery needs nothing.
func (f *FormValidator) Payment(p Payment) error {
	if verr := f.payment(p); verr != nil {
		return verr
	}
	return nil
}

func (f *FormValidator) payment(p Payment) *ValidationError {
	switch p.Method {
	case PaymentCard:
		return f.check(cardForm{Number: p.CardNumber, Name: p.CardName, Expiry: p.CardExpiry, CVV: p.CardCVV})
	case PaymentUPI:
		return f.check(upiForm{ID: p.UPIID})
	case PaymentCOD:
		return nil
	default:
		return &ValidationError{Fields: map[string]string{"method": messages["method:oneof"]}}
	}
}

// Order validates both forms and reports every invalid field at once.
func (f *FormValidator) Order(d ShippingDetails, p Payment) error {
	if verr := f.check(d).merge(f.payment(p)); verr != nil {
		return verr
	}
	return nil
}

func (f *FormValidator) check(s any) *ValidationError {
	err := f.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: map[string]string{"form": err.Error()}}
	}
	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = messageFor(fe.Field(), fe.Tag())
	}
	return verr
}

func messageFor(field, tag string) string {
	if msg, ok := messages[field+":"+tag]; ok {
		return msg
	}
	if tag == "required" {
		return "This field is required"
	}
	return "Invalid value"
}
