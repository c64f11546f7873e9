package catalog

import (
	"context"
	"fmt"

	"github.com/jonwraymond/querysync/auth"
	"github.com/jonwraymond/querysync/cache"
	"github.com/jonwraymond/querysync/mutation"
	"github.com/jonwraymond/querysync/pagination"
	"github.com/jonwraymond/querysync/query"
)

// DefaultPageSize matches the lesson and user listings.
const DefaultPageSize = 10

// Option configures a Catalog.
type Option func(*Catalog)

// WithPageSize sets the page size of LessonPage and UserPage.
func WithPageSize(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithQueryOptions passes options to the query client.
func WithQueryOptions(opts ...query.Option) Option {
	return func(c *Catalog) { c.queryOpts = append(c.queryOpts, opts...) }
}

// Catalog reads and edits lessons, vocabularies, and users.
type Catalog struct {
	client    *query.Client
	pageSize  int
	queryOpts []query.Option
}

// New creates a Catalog over fetcher and writer.
func New(fetcher cache.Fetcher, writer mutation.Writer, opts ...Option) (*Catalog, error) {
	c := &Catalog{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(c)
	}
	qopts := append([]query.Option{
		query.WithMutationOptions(mutation.WithDependents(Vocabularies, Lessons)),
	}, c.queryOpts...)
	client, err := query.New(fetcher, writer, qopts...)
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

// Client returns the underlying query client.
func (c *Catalog) Client() *query.Client { return c.client }

// Close releases the cache.
func (c *Catalog) Close(ctx context.Context) error { return c.client.Close(ctx) }

// Gate applies the visibility gate for screen.
func (c *Catalog) Gate(id *auth.Identity, screen string) (auth.Decision, error) {
	return Gate(id, screen)
}

func list[T any](ctx context.Context, c *Catalog, resource string, params map[string]any) ([]T, error) {
	res, err := c.client.Query(ctx, resource, params)
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	items, err := query.Decode[[]T](res.Data)
	if err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", resource, err)
	}
	return items, nil
}

func page[T any](ctx context.Context, c *Catalog, resource string, n int) (pagination.Page[T], error) {
	items, err := list[T](ctx, c, resource, nil)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	return pagination.Paginate(items, c.pageSize, n)
}

// Lessons returns every lesson, read through the cache.
func (c *Catalog) Lessons(ctx context.Context) ([]Lesson, error) {
	return list[Lesson](ctx, c, Lessons, nil)
}

// LessonPage returns page n of the lessons. Pages are cut from the one
// cached lessons list.
func (c *Catalog) LessonPage(ctx context.Context, n int) (pagination.Page[Lesson], error) {
	return page[Lesson](ctx, c, Lessons, n)
}

// Vocabularies lists the vocabulary of one lesson, or of all lessons when
// lessonID is empty. Each filter is cached separately.
func (c *Catalog) Vocabularies(ctx context.Context, lessonID string) ([]Vocabulary, error) {
	var params map[string]any
	if lessonID != "" {
		params = map[string]any{"lessonId": lessonID}
	}
	return list[Vocabulary](ctx, c, Vocabularies, params)
}

// Users returns every user, read through the cache.
func (c *Catalog) Users(ctx context.Context) ([]User, error) {
	return list[User](ctx, c, Users, nil)
}

// UserPage returns page n of the users.
func (c *Catalog) UserPage(ctx context.Context, n int) (pagination.Page[User], error) {
	return page[User](ctx, c, Users, n)
}

// CreateLesson validates l and posts it as a new lesson.
func (c *Catalog) CreateLesson(ctx context.Context, l Lesson) (mutation.Result, error) {
	if err := l.Validate(); err != nil {
		return mutation.Result{}, err
	}
	l.ID = ""
	return c.client.Mutator(Lessons).Create(ctx, l)
}

// UpdateLesson validates l and replaces lesson l.ID.
func (c *Catalog) UpdateLesson(ctx context.Context, l Lesson) (mutation.Result, error) {
	if err := l.Validate(); err != nil {
		return mutation.Result{}, err
	}
	return c.client.Mutator(Lessons).Update(ctx, l.ID, l)
}

// SaveLessonDraft submits an inline edit. The draft stays active when
// validation fails so the edit can be corrected.
func (c *Catalog) SaveLessonDraft(ctx context.Context, d *mutation.Draft[Lesson]) (mutation.Result, error) {
	l, ok := d.Value()
	if !ok {
		return mutation.Result{}, mutation.ErrNoDraft
	}
	if err := l.Validate(); err != nil {
		return mutation.Result{}, err
	}
	intent, err := d.Submit(Lessons)
	if err != nil {
		return mutation.Result{}, err
	}
	return c.client.Mutate(ctx, intent)
}

// DeleteLesson removes lesson id.
func (c *Catalog) DeleteLesson(ctx context.Context, id string) (mutation.Result, error) {
	return c.client.Mutator(Lessons).Delete(ctx, id)
}

// CreateVocabulary validates v and adds it to its lesson.
func (c *Catalog) CreateVocabulary(ctx context.Context, v Vocabulary) (mutation.Result, error) {
	if err := v.Validate(); err != nil {
		return mutation.Result{}, err
	}
	v.ID = ""
	return c.client.Mutator(Vocabularies).Create(ctx, v)
}

// UpdateVocabulary validates v and replaces vocabulary v.ID.
func (c *Catalog) UpdateVocabulary(ctx context.Context, v Vocabulary) (mutation.Result, error) {
	if err := v.Validate(); err != nil {
		return mutation.Result{}, err
	}
	return c.client.Mutator(Vocabularies).Update(ctx, v.ID, v)
}

// DeleteVocabulary removes vocabulary id.
func (c *Catalog) DeleteVocabulary(ctx context.Context, id string) (mutation.Result, error) {
	return c.client.Mutator(Vocabularies).Delete(ctx, id)
}

// SetRole changes a user's role through PUT /api/users/{id}/role.
func (c *Catalog) SetRole(ctx context.Context, userID, role string) (mutation.Result, error) {
	if role != auth.RoleAdmin && role != auth.RoleUser {
		return mutation.Result{}, &InputError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}
	return c.client.Mutator(Users).Do(ctx, userID, "role", map[string]string{"role": role})
}

// Promote makes userID an admin.
func (c *Catalog) Promote(ctx context.Context, userID string) (mutation.Result, error) {
	return c.SetRole(ctx, userID, auth.RoleAdmin)
}

// Demote makes userID a regular user.
func (c *Catalog) Demote(ctx context.Context, userID string) (mutation.Result, error) {
	return c.SetRole(ctx, userID, auth.RoleUser)
}
