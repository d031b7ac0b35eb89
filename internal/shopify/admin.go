package shopify

import (
	"context"
	"fmt"
	"strings"
)

// Metaobject is a node returned by the metaobject queries.
type Metaobject struct {
	ID     string       `json:"id"`
	Handle string       `json:"handle"`
	Fields []FieldValue `json:"fields"`
}

type FieldValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrorsError is returned when a mutation is rejected by Shopify with
// userErrors instead of a transport or GraphQL error.
type UserErrorsError struct {
	Op     string
	Errors []UserError
}

func (e *UserErrorsError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ue := range e.Errors {
		msgs[i] = ue.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, strings.Join(msgs, "; "))
}

type mutationPayload struct {
	Metaobject *struct {
		ID     string `json:"id"`
		Handle string `json:"handle"`
	} `json:"metaobject"`
	UserErrors []UserError `json:"userErrors"`
}

// ListMetaobjects returns up to first metaobjects of type. An empty query
// means no filter.
func (c *Client) ListMetaobjects(ctx context.Context, typ string, first int, query string) ([]Metaobject, error) {
	vars := map[string]any{"type": typ, "first": first}
	if query != "" {
		vars["query"] = query
	}

	var out struct {
		Metaobjects struct {
			Nodes []Metaobject `json:"nodes"`
		} `json:"metaobjects"`
	}
	if err := c.Execute(ctx, MetaobjectsQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("list %s metaobjects: %w", typ, err)
	}
	return out.Metaobjects.Nodes, nil
}

// MetaobjectByHandle returns nil, nil when no metaobject has the handle.
func (c *Client) MetaobjectByHandle(ctx context.Context, typ, handle string) (*Metaobject, error) {
	vars := map[string]any{
		"handle": map[string]any{"type": typ, "handle": handle},
	}

	var out struct {
		MetaobjectByHandle *Metaobject `json:"metaobjectByHandle"`
	}
	if err := c.Execute(ctx, MetaobjectByHandleQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("get %s metaobject %q: %w", typ, handle, err)
	}
	return out.MetaobjectByHandle, nil
}

// CreateMetaobject creates a metaobject and returns its handle.
func (c *Client) CreateMetaobject(ctx context.Context, typ, handle string, fields []FieldValue) (string, error) {
	vars := map[string]any{
		"metaobject": map[string]any{
			"type":   typ,
			"handle": handle,
			"fields": fields,
		},
	}

	var out struct {
		MetaobjectCreate mutationPayload `json:"metaobjectCreate"`
	}
	if err := c.Execute(ctx, MetaobjectCreateMutation, vars, &out); err != nil {
		return "", fmt.Errorf("create %s metaobject: %w", typ, err)
	}
	p := out.MetaobjectCreate
	if len(p.UserErrors) > 0 {
		return "", &UserErrorsError{Op: "metaobjectCreate", Errors: p.UserErrors}
	}
	if p.Metaobject == nil {
		return handle, nil
	}
	return p.Metaobject.Handle, nil
}

// UpdateMetaobject updates fields on the metaobject with the given GID.
func (c *Client) UpdateMetaobject(ctx context.Context, id string, fields []FieldValue) error {
	vars := map[string]any{
		"id":         id,
		"metaobject": map[string]any{"fields": fields},
	}

	var out struct {
		MetaobjectUpdate mutationPayload `json:"metaobjectUpdate"`
	}
	if err := c.Execute(ctx, MetaobjectUpdateMutation, vars, &out); err != nil {
		return fmt.Errorf("update metaobject %s: %w", id, err)
	}
	if len(out.MetaobjectUpdate.UserErrors) > 0 {
		return &UserErrorsError{Op: "metaobjectUpdate", Errors: out.MetaobjectUpdate.UserErrors}
	}
	return nil
}

type Product struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
	Image  string `json:"image"`
}

func (c *Client) ListProducts(ctx context.Context, first int) ([]Product, error) {
	var out struct {
		Products struct {
			Nodes []struct {
				LegacyResourceID string `json:"legacyResourceId"`
				Title            string `json:"title"`
				Handle           string `json:"handle"`
				FeaturedImage    *struct {
					URL string `json:"url"`
				} `json:"featuredImage"`
			} `json:"nodes"`
		} `json:"products"`
	}
	if err := c.Execute(ctx, ProductsQuery, map[string]any{"first": first}, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]Product, 0, len(out.Products.Nodes))
	for _, n := range out.Products.Nodes {
		p := Product{ID: n.LegacyResourceID, Title: n.Title, Handle: n.Handle}
		if n.FeaturedImage != nil {
			p.Image = n.FeaturedImage.URL
		}
		products = append(products, p)
	}
	return products, nil
}

type OrderCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID       string        `json:"id"`
	Customer OrderCustomer `json:"customer"`
	Date     string        `json:"date"`
	Status   string        `json:"status"`
	Total    string        `json:"total"`
}

func (c *Client) ListOrders(ctx context.Context, first int) ([]Order, error) {
	var out struct {
		Orders struct {
			Nodes []struct {
				Name                   string `json:"name"`
				CreatedAt              string `json:"createdAt"`
				DisplayFinancialStatus string `json:"displayFinancialStatus"`
				TotalPriceSet          struct {
					ShopMoney struct {
						Amount       string `json:"amount"`
						CurrencyCode string `json:"currencyCode"`
					} `json:"shopMoney"`
				} `json:"totalPriceSet"`
				Customer *struct {
					FirstName string `json:"firstName"`
					LastName  string `json:"lastName"`
					Email     string `json:"email"`
				} `json:"customer"`
			} `json:"nodes"`
		} `json:"orders"`
	}
	if err := c.Execute(ctx, OrdersQuery, map[string]any{"first": first}, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]Order, 0, len(out.Orders.Nodes))
	for _, n := range out.Orders.Nodes {
		o := Order{
			ID:     n.Name,
			Date:   n.CreatedAt,
			Status: strings.ToLower(n.DisplayFinancialStatus),
			Total:  n.TotalPriceSet.ShopMoney.Amount,
		}
		// Guest checkouts have no customer.
		if n.Customer != nil {
			o.Customer = OrderCustomer{
				Name:  strings.TrimSpace(n.Customer.FirstName + " " + n.Customer.LastName),
				Email: n.Customer.Email,
			}
		}
		orders = append(orders, o)
	}
	return orders, nil
}
