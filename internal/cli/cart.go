package cli

import (
	"context"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
)

func (c *cli) cartCommand() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Edit a cart in the configured storage",
	}
	cmd.PersistentFlags().StringVarP(&session, "session", "s", cart.DefaultSession, "Cart session")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCart(cmd.Context(), session, func(_ *catalog.Catalog, s *cart.Store) error {
				c.printCart(s.Snapshot())
				return nil
			})
		},
	}

	var (
		quantity    int
		size, color string
	)
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 1 {
				return errors.Errorf("quantity must be at least 1, got %d", quantity)
			}
			return c.withCart(cmd.Context(), session, func(cat *catalog.Catalog, s *cart.Store) error {
				p, err := cat.ByID(args[0])
				if err != nil {
					return err
				}
				if size != "" && len(p.Sizes) > 0 && !slices.Contains(p.Sizes, size) {
					return errors.Errorf("size %q is not offered for %s", size, p.ID)
				}
				if color != "" && len(p.Colors) > 0 && !slices.Contains(p.Colors, color) {
					return errors.Errorf("colour %q is not offered for %s", color, p.ID)
				}
				s.Add(cmd.Context(), p, quantity, size, color)
				c.printCart(s.Snapshot())
				return nil
			})
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "Units to add")
	add.Flags().StringVar(&size, "size", "", "Size option")
	add.Flags().StringVar(&color, "color", "", "Colour option")

	var setQuantity int
	update := &cobra.Command{
		Use:   "update PRODUCT_ID",
		Short: "Set the quantity of every line of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if setQuantity < 1 {
				return errors.Errorf("quantity must be at least 1, got %d", setQuantity)
			}
			return c.withCart(cmd.Context(), session, func(_ *catalog.Catalog, s *cart.Store) error {
				s.UpdateQuantity(cmd.Context(), args[0], setQuantity)
				c.printCart(s.Snapshot())
				return nil
			})
		},
	}
	update.Flags().IntVarP(&setQuantity, "quantity", "q", 1, "New quantity")

	remove := &cobra.Command{
		Use:   "remove PRODUCT_ID",
		Short: "Remove every line of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCart(cmd.Context(), session, func(_ *catalog.Catalog, s *cart.Store) error {
				s.Remove(cmd.Context(), args[0])
				c.printCart(s.Snapshot())
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCart(cmd.Context(), session, func(_ *catalog.Catalog, s *cart.Store) error {
				s.Clear(cmd.Context())
				c.printCart(s.Snapshot())
				return nil
			})
		},
	}

	cmd.AddCommand(show, add, update, remove, clearCmd)
	return cmd
}

func (c *cli) quoteCommand() *cobra.Command {
	var session, code string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a cart: subtotal, shipping, GST, discount and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, done, err := c.backends(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			s := cart.Open(cmd.Context(), b.Carts, cart.WithKey(cart.SessionKey(session)), cart.WithLogger(c.lg))
			svc := checkout.NewService(coupon.NewService(b.Coupons))
			q, err := svc.Quote(cmd.Context(), s.Snapshot(), code)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
			row := func(label, value string) { _, _ = tw.Write([]byte(label + "\t" + value + "\t\n")) }
			row("Subtotal", rupees(q.Subtotal.StringFixed(2)))
			row("Shipping", rupees(q.Shipping.StringFixed(2)))
			row("GST (18%)", rupees(q.Taxes.StringFixed(2)))
			if q.CouponCode != "" {
				row("Discount ("+q.CouponCode+")", "-"+rupees(q.Discount.StringFixed(2)))
			}
			row("Total", rupees(q.Total.StringFixed(2)))
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", cart.DefaultSession, "Cart session")
	cmd.Flags().StringVar(&code, "coupon", "", "Coupon code to apply")
	return cmd
}

func (c *cli) withCart(ctx context.Context, session string, fn func(cat *catalog.Catalog, s *cart.Store) error) error {
	b, done, err := c.backends(ctx)
	if err != nil {
		return err
	}
	defer done()

	cat, err := catalog.Load(ctx, b.Catalog)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	s := cart.Open(ctx, b.Carts,
		cart.WithKey(cart.SessionKey(session)),
		cart.WithLogger(c.lg),
		cart.WithNotifier(cart.NewLogNotifier(c.lg)),
	)
	return fn(cat, s)
}

func (c *cli) printCart(snap cart.Snapshot) {
	if len(snap.Lines) == 0 {
		c.printf("Your cart is empty\n")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, l := range snap.Lines {
		variant := l.Size
		if l.Color != "" {
			if variant != "" {
				variant += "/"
			}
			variant += l.Color
		}
		_, _ = tw.Write([]byte(l.Product.ID + "\t" + l.Product.Name + "\t" + variant + "\t" +
			"x" + strconv.Itoa(l.Quantity) + "\t" + catalog.FormatPrice(l.Subtotal()) + "\n"))
	}
	_ = tw.Flush()
	c.printf("%d items, total %s\n", snap.Count, catalog.FormatPrice(snap.Total))
}

func rupees(amount string) string { return "₹" + amount }
