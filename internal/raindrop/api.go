package raindrop

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nikbrunner/rainmd/internal/model"
)

// MaxPerPage is the largest page size the raindrops endpoint accepts.
const MaxPerPage = 50

// listResponse is the envelope of endpoints that return items.
type listResponse[T any] struct {
	Result       bool   `json:"result"`
	Items        []T    `json:"items"`
	Count        int    `json:"count"`
	ErrorMessage string `json:"errorMessage"`
}

// itemResponse is the envelope of endpoints that return a single item.
// Some deployments answer single lookups with items instead.
type itemResponse[T any] struct {
	Result       bool   `json:"result"`
	Item         *T     `json:"item"`
	Items        []T    `json:"items"`
	ErrorMessage string `json:"errorMessage"`
}

type userResponse struct {
	Result       bool     `json:"result"`
	User         *apiUser `json:"user"`
	ErrorMessage string   `json:"errorMessage"`
}

type apiRef struct {
	ID int64 `json:"$id"`
}

type apiHighlight struct {
	Text    string `json:"text"`
	Note    string `json:"note"`
	Color   string `json:"color"`
	Created string `json:"created"`
}

type apiRaindrop struct {
	ID         int64          `json:"_id"`
	Title      string         `json:"title"`
	Excerpt    string         `json:"excerpt"`
	Note       string         `json:"note"`
	Link       string         `json:"link"`
	Cover      string         `json:"cover"`
	Created    string         `json:"created"`
	LastUpdate string         `json:"lastUpdate"`
	Tags       []string       `json:"tags"`
	Collection *apiRef        `json:"collection"`
	Highlights []apiHighlight `json:"highlights"`
	Type       string         `json:"type"`
}

type apiCollection struct {
	ID         int64   `json:"_id"`
	Title      string  `json:"title"`
	Parent     *apiRef `json:"parent"`
	Count      int     `json:"count"`
	Created    string  `json:"created"`
	LastUpdate string  `json:"lastUpdate"`
}

type apiUser struct {
	ID       int64  `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// User is the account a token belongs to.
type User struct {
	ID       int64
	FullName string
	Email    string
}

// PageQuery selects one page of the raindrops endpoint.
type PageQuery struct {
	Page    int
	PerPage int
	Type    model.ContentType // empty or TypeAll = no filter
	Search  string
	Nested  bool
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	perPage := q.PerPage
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	v.Set("perpage", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(q.Page))
	if q.Type != "" && q.Type != model.TypeAll {
		v.Set("type", string(q.Type))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Nested {
		v.Set("nested", "true")
	}
	return v
}

// Page is one page of raindrops. Count is the server-reported total, which
// is informational only.
type Page struct {
	Items []model.Raindrop
	Count int
}

func convertRaindrop(ar apiRaindrop) model.Raindrop {
	r := model.Raindrop{
		ID:         ar.ID,
		Title:      ar.Title,
		Excerpt:    ar.Excerpt,
		Note:       ar.Note,
		Link:       ar.Link,
		Cover:      ar.Cover,
		Created:    ar.Created,
		LastUpdate: ar.LastUpdate,
		Tags:       ar.Tags,
		Type:       model.ContentType(ar.Type),
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if ar.Collection != nil {
		r.Collection = &model.CollectionRef{ID: ar.Collection.ID}
	}
	for _, h := range ar.Highlights {
		r.Highlights = append(r.Highlights, model.Highlight{
			Text:    h.Text,
			Note:    h.Note,
			Color:   h.Color,
			Created: h.Created,
		})
	}
	return r
}

func convertCollection(ac apiCollection) model.Collection {
	c := model.Collection{
		ID:         ac.ID,
		Title:      ac.Title,
		Count:      ac.Count,
		Created:    ac.Created,
		LastUpdate: ac.LastUpdate,
	}
	if ac.Parent != nil {
		parent := ac.Parent.ID
		c.ParentID = &parent
	}
	return c
}

func rejected(msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ErrRejected
	}
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}

// RootCollections returns the top-level collections.
func (c *Client) RootCollections(ctx context.Context) ([]model.Collection, error) {
	return c.collections(ctx, "collections", "/collections")
}

// ChildCollections returns every nested collection.
func (c *Client) ChildCollections(ctx context.Context) ([]model.Collection, error) {
	return c.collections(ctx, "collections_childrens", "/collections/childrens")
}

func (c *Client) collections(ctx context.Context, endpoint, path string) ([]model.Collection, error) {
	var resp listResponse[apiCollection]
	if err := c.getJSON(ctx, endpoint, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Result {
		return nil, rejected(resp.ErrorMessage)
	}
	if resp.Items == nil {
		return nil, fmt.Errorf("%w: %s has no items", ErrUnexpectedResponse, path)
	}

	out := make([]model.Collection, 0, len(resp.Items))
	for _, ac := range resp.Items {
		out = append(out, convertCollection(ac))
	}
	return out, nil
}

// Collection returns the metadata of one collection.
func (c *Client) Collection(ctx context.Context, id int64) (*model.Collection, error) {
	var resp itemResponse[apiCollection]
	path := "/collection/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, "collection", path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Result {
		return nil, rejected(resp.ErrorMessage)
	}
	if resp.Item == nil {
		return nil, fmt.Errorf("%w: collection %d has no item", ErrUnexpectedResponse, id)
	}

	col := convertCollection(*resp.Item)
	return &col, nil
}

// Raindrops returns one page of the raindrops in collectionID. Collection 0
// addresses every raindrop of the account.
func (c *Client) Raindrops(ctx context.Context, collectionID int64, q PageQuery) (Page, error) {
	var resp listResponse[apiRaindrop]
	path := "/raindrops/" + strconv.FormatInt(collectionID, 10)
	if err := c.getJSON(ctx, "raindrops", path, q.values(), &resp); err != nil {
		return Page{}, err
	}
	if !resp.Result {
		return Page{}, rejected(resp.ErrorMessage)
	}
	if resp.Items == nil {
		return Page{}, fmt.Errorf("%w: raindrops page %d has no items", ErrUnexpectedResponse, q.Page)
	}

	page := Page{Items: make([]model.Raindrop, 0, len(resp.Items)), Count: resp.Count}
	for _, ar := range resp.Items {
		page.Items = append(page.Items, convertRaindrop(ar))
	}
	return page, nil
}

// Raindrop returns a single raindrop by id.
func (c *Client) Raindrop(ctx context.Context, id int64) (*model.Raindrop, error) {
	var resp itemResponse[apiRaindrop]
	path := "/raindrop/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, "raindrop", path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Result {
		return nil, rejected(resp.ErrorMessage)
	}

	var ar apiRaindrop
	switch {
	case resp.Item != nil:
		ar = *resp.Item
	case len(resp.Items) > 0:
		ar = resp.Items[0]
	default:
		return nil, fmt.Errorf("%w: raindrop %d has no item", ErrUnexpectedResponse, id)
	}

	r := convertRaindrop(ar)
	return &r, nil
}

// User returns the account the token belongs to. It is used to check that a
// token is accepted.
func (c *Client) User(ctx context.Context) (*User, error) {
	var resp userResponse
	if err := c.getJSON(ctx, "user", "/user", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Result {
		return nil, rejected(resp.ErrorMessage)
	}
	if resp.User == nil {
		return nil, fmt.Errorf("%w: user has no body", ErrUnexpectedResponse)
	}
	return &User{ID: resp.User.ID, FullName: resp.User.FullName, Email: resp.User.Email}, nil
}
