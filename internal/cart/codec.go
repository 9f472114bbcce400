package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
)

// Encode serializes lines as a JSON array of
// {"product": {...}, "quantity": n, "size"?: s, "color"?: c}. The full product
// is embedded so a stored cart stays readable after the catalog changes.
func Encode(lines []Line) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("product")
		encodeProduct(&e, l.Product)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		if l.Size != "" {
			e.FieldStart("size")
			e.Str(l.Size)
		}
		if l.Color != "" {
			e.FieldStart("color")
			e.Str(l.Color)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	e.Int64(p.Price)
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("category")
	e.Str(p.Category)
	if p.Subcategory != "" {
		e.FieldStart("subcategory")
		e.Str(p.Subcategory)
	}
	if p.Featured {
		e.FieldStart("featured")
		e.Bool(true)
	}
	if p.New {
		e.FieldStart("new")
		e.Bool(true)
	}
	if p.BestSeller {
		e.FieldStart("bestSeller")
		e.Bool(true)
	}
	if len(p.Colors) > 0 {
		e.FieldStart("colors")
		encodeStrings(e, p.Colors)
	}
	if len(p.Sizes) > 0 {
		e.FieldStart("sizes")
		encodeStrings(e, p.Sizes)
	}
	e.FieldStart("inStock")
	e.Bool(p.InStock)
	e.ObjEnd()
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}

// Decode parses the layout produced by Encode. Unknown keys are ignored and
// JSON null is accepted wherever a value is optional.
func Decode(data []byte) ([]Line, error) {
	d := jx.DecodeBytes(data)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var lines []Line
	if err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return err
		}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart lines")
	}
	return lines, nil
}

func decodeLine(d *jx.Decoder) (Line, error) {
	var (
		l          Line
		hasProduct bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product":
			p, err := decodeProduct(d)
			if err != nil {
				return errors.Wrap(err, "product")
			}
			l.Product = p
			hasProduct = true
			return nil
		case "quantity":
			n, err := d.Int()
			l.Quantity = n
			return err
		case "size":
			return optionalStr(d, &l.Size)
		case "color":
			return optionalStr(d, &l.Color)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return Line{}, err
	}
	if !hasProduct {
		return Line{}, errors.New("line without product")
	}
	return l, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return str(d, &p.ID)
		case "name":
			return str(d, &p.Name)
		case "description":
			return optionalStr(d, &p.Description)
		case "price":
			n, err := d.Int64()
			p.Price = n
			return err
		case "image":
			return optionalStr(d, &p.Image)
		case "category":
			return str(d, &p.Category)
		case "subcategory":
			return optionalStr(d, &p.Subcategory)
		case "featured":
			return optionalBool(d, &p.Featured)
		case "new":
			return optionalBool(d, &p.New)
		case "bestSeller":
			return optionalBool(d, &p.BestSeller)
		case "inStock":
			return optionalBool(d, &p.InStock)
		case "colors":
			return strs(d, &p.Colors)
		case "sizes":
			return strs(d, &p.Sizes)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return product.Product{}, err
	}
	if p.ID == "" {
		return product.Product{}, errors.New("product without id")
	}
	return p, nil
}

func str(d *jx.Decoder, dst *string) error {
	s, err := d.Str()
	*dst = s
	return err
}

func optionalStr(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return str(d, dst)
}

func optionalBool(d *jx.Decoder, dst *bool) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	b, err := d.Bool()
	*dst = b
	return err
}

func strs(d *jx.Decoder, dst *[]string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	var out []string
	if err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		out = append(out, s)
		return err
	}); err != nil {
		return err
	}
	*dst = out
	return nil
}
