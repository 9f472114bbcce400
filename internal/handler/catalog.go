package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/catalog"
)

func (h *Handler) listCategories(c *gin.Context) {
	cats := h.catalog.Categories()
	out := make([]categoryResponse, len(cats))
	for i, cat := range cats {
		out[i] = h.toCategory(cat)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getCategory(c *gin.Context) {
	cat, err := h.catalog.Category(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toCategory(cat))
}

// listCategoryProducts serves the category page: the category (and optional
// subcategory) listing run through the filter/sort pipeline, plus the facets
// of the unfiltered listing.
func (h *Handler) listCategoryProducts(c *gin.Context) {
	cat, err := h.catalog.Category(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := categoryProductsResponse{Category: h.toCategory(cat)}
	subID := c.Query("subcategory")
	if subID != "" {
		sub, ok := cat.Subcategory(subID)
		if !ok {
			abort(c, http.StatusNotFound, "subcategory not found")
			return
		}
		resp.Subcategory = &subcategoryResponse{ID: sub.ID, Name: sub.Name}
	}

	filter, err := parseFilter(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	listing := h.catalog.ByCategory(cat.ID, subID)
	filtered := catalog.Apply(listing, filter)

	resp.Filter = toFilter(filter)
	resp.Facets = toFacets(catalog.CollectFacets(listing))
	resp.Count = len(filtered)
	resp.Products = h.toProducts(filtered)
	c.JSON(http.StatusOK, resp)
}

// listProducts serves the home page lists and search:
// ?q=text, ?featured, ?bestSellers, ?new. Without a selector it returns the
// whole catalog.
func (h *Handler) listProducts(c *gin.Context) {
	if q, ok := c.GetQuery("q"); ok {
		c.JSON(http.StatusOK, h.toProducts(h.catalog.Search(q)))
		return
	}
	switch {
	case flag(c, "featured"):
		c.JSON(http.StatusOK, h.toProducts(h.catalog.Featured()))
	case flag(c, "bestSellers"):
		c.JSON(http.StatusOK, h.toProducts(h.catalog.BestSellers()))
	case flag(c, "new"):
		c.JSON(http.StatusOK, h.toProducts(h.catalog.NewArrivals()))
	default:
		c.JSON(http.StatusOK, h.toProducts(h.catalog.All()))
	}
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.catalog.ByID(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	limit := catalog.DefaultRelatedLimit
	if v, ok := c.GetQuery("related"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, "related must be a non-negative integer")
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, productDetailResponse{
		Product: h.toProduct(p),
		Related: h.toProducts(h.catalog.Related(p, limit)),
	})
}

// flag reports whether a boolean query parameter is set. A bare "?featured"
// counts as true.
func flag(c *gin.Context, name string) bool {
	v, ok := c.GetQuery(name)
	if !ok {
		return false
	}
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// parseFilter reads the category page selection from the query string:
// min, max, color (repeated or comma separated), size, sort.
func parseFilter(c *gin.Context) (catalog.Filter, error) {
	f := catalog.DefaultFilter()

	if v := c.Query("min"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return f, errors.New("min must be a non-negative integer")
		}
		f.MinPrice = n
	}
	if v := c.Query("max"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return f, errors.New("max must be a non-negative integer")
		}
		f.MaxPrice = n
	}
	if f.MinPrice > f.MaxPrice {
		return f, errors.New("min must not exceed max")
	}

	f.Colors = listParam(c, "color")
	f.Sizes = listParam(c, "size")
	f.Sort = catalog.ParseSortKey(c.Query("sort"))
	return f, nil
}

func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
