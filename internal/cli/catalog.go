package cli

import (
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

func (c *cli) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the product catalog",
	}
	cmd.AddCommand(c.catalogListCommand(), c.catalogSearchCommand(), c.catalogShowCommand(), c.categoriesCommand())
	return cmd
}

func (c *cli) catalogListCommand() *cobra.Command {
	var (
		category, subcategory, sort string
		minPrice, maxPrice          int64
		colors, sizes               []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally filtered like a category page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, done, err := c.catalog(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			products := cat.All()
			if category != "" {
				if _, err := cat.Category(category); err != nil {
					return err
				}
				products = cat.ByCategory(category, subcategory)
			}
			products = catalog.Apply(products, catalog.Filter{
				MinPrice: minPrice,
				MaxPrice: maxPrice,
				Colors:   colors,
				Sizes:    sizes,
				Sort:     catalog.ParseSortKey(sort),
			})
			c.printProducts(products)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&category, "category", "", "Category id")
	f.StringVar(&subcategory, "subcategory", "", "Subcategory id within --category")
	f.StringVar(&sort, "sort", string(catalog.SortFeatured), "featured, price-asc, price-desc, name-asc or name-desc")
	f.Int64Var(&minPrice, "min", catalog.DefaultMinPrice, "Minimum price in rupees")
	f.Int64Var(&maxPrice, "max", catalog.DefaultMaxPrice, "Maximum price in rupees")
	f.StringSliceVar(&colors, "color", nil, "Keep products offered in any of these colours")
	f.StringSliceVar(&sizes, "size", nil, "Keep products offered in any of these sizes")
	return cmd
}

func (c *cli) catalogSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search products by name, description and category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, done, err := c.catalog(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			c.printProducts(cat.Search(strings.Join(args, " ")))
			return nil
		},
	}
}

func (c *cli) catalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show PRODUCT_ID",
		Short: "Show a product and related items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, done, err := c.catalog(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			p, err := cat.ByID(args[0])
			if err != nil {
				return err
			}
			c.printf("%s  %s\n", p.Name, catalog.FormatPrice(p.Price))
			if p.Description != "" {
				c.printf("%s\n", p.Description)
			}
			c.printf("Category: %s/%s\n", p.Category, p.Subcategory)
			if len(p.Colors) > 0 {
				c.printf("Colours:  %s\n", strings.Join(p.Colors, ", "))
			}
			if len(p.Sizes) > 0 {
				c.printf("Sizes:    %s\n", strings.Join(p.Sizes, ", "))
			}
			if related := cat.Related(p, 4); len(related) > 0 {
				c.printf("\nYou may also like:\n")
				c.printProducts(related)
			}
			return nil
		},
	}
}

func (c *cli) categoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and subcategories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, done, err := c.catalog(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			for _, category := range cat.Categories() {
				c.printf("%s\t%s\n", category.ID, category.Name)
				for _, sub := range category.Subcategories {
					c.printf("  %s\t%s\n", sub.ID, sub.Name)
				}
			}
			return nil
		},
	}
}

func (c *cli) printProducts(products []product.Product) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, p := range products {
		_, _ = tw.Write([]byte(p.ID + "\t" + p.Name + "\t" + catalog.FormatPrice(p.Price) + "\n"))
	}
	_ = tw.Flush()
	c.printf("%d products\n", len(products))
}
