package handlers

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petnice/clinic-dashboard/internal/api/dto"
	"github.com/petnice/clinic-dashboard/internal/api/http/views"
	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/domain"
	"github.com/petnice/clinic-dashboard/internal/service"
	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

// Field describes one input of a screen form.
type Field struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Step     string
	Options  []Option
	// Lookup fields take their options from the screen's lookup list.
	Lookup bool
	// NoBlank hides the empty choice of a select.
	NoBlank bool
}

// Option is a select choice.
type Option struct {
	Value string
	Label string
}

// Column renders one table cell. lookup maps lookup ids to labels.
type Column[T domain.Record] struct {
	Label string
	Value func(record T, lookup map[string]string) string
}

// LookupFunc loads the options of a screen's lookup fields.
type LookupFunc func(ctx context.Context, principal *auth.Principal) ([]Option, error)

// ScreenSchema parameterizes the list + form + confirm-delete screen for one resource.
type ScreenSchema[T domain.Record] struct {
	Name     string
	Title    string
	Singular string
	Fields   []Field
	Columns  []Column[T]
	NewForm  func() dto.Form
	FormFrom func(T) dto.Form
	Label    func(T) string
	Lookup   LookupFunc
}

// ScreenDeps are shared by every screen.
type ScreenDeps struct {
	Auth         *service.AuthService
	Cookie       SessionCookie
	SnapshotSize int
	SnapshotTTL  time.Duration
	Logger       *zap.Logger
}

type listSnapshot[T domain.Record] struct {
	Records []T
	Options []Option
}

// ResourceScreen serves one resource. The last successful list of every session is kept
// so a failed fetch still shows data instead of an empty table.
type ResourceScreen[T domain.Record] struct {
	schema    ScreenSchema[T]
	records   *service.RecordService[T]
	auth      *service.AuthService
	cookie    SessionCookie
	snapshots *expirable.LRU[string, listSnapshot[T]]
	logger    *zap.Logger
}

// NewResourceScreen builds a screen over records.
func NewResourceScreen[T domain.Record](schema ScreenSchema[T], records *service.RecordService[T], deps ScreenDeps) *ResourceScreen[T] {
	size := deps.SnapshotSize
	if size <= 0 {
		size = 1024
	}
	ttl := deps.SnapshotTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceScreen[T]{
		schema:    schema,
		records:   records,
		auth:      deps.Auth,
		cookie:    deps.Cookie,
		snapshots: expirable.NewLRU[string, listSnapshot[T]](size, nil, ttl),
		logger:    logger.With(zap.String("screen", schema.Name)),
	}
}

// Card links the screen from the dashboard.
func (s *ResourceScreen[T]) Card() Card {
	return Card{Name: s.schema.Name, Title: s.schema.Title}
}

// Register mounts the screen routes on a guarded router.
func (s *ResourceScreen[T]) Register(router fiber.Router) {
	group := router.Group("/" + s.schema.Name)
	group.Get("/", s.List)
	group.Post("/", s.Create)
	group.Post("/:id", s.Update)
	group.Get("/:id/delete", s.ConfirmDelete)
	group.Post("/:id/delete", s.Delete)
}

// List handles GET /<screen>?q=&edit=.
func (s *ResourceScreen[T]) List(c *fiber.Ctx) error {
	principal := principalOf(c)
	ctx := c.UserContext()

	snap, err := s.fetch(ctx, principal)
	if ctx.Err() != nil {
		// the request is gone; late results are dropped, not rendered or cached
		return apperrors.NewNetworkError(ctx.Err())
	}

	page := s.newPage(principal)
	page.Query = c.Query("q")
	if err != nil {
		if isSessionRejected(err) {
			return s.endSession(c, principal)
		}
		s.logger.Warn("list fetch failed", zap.Error(err))
		page.Banner = apperrors.UserMessage(err)
		if last, ok := s.snapshots.Get(principal.SessionID); ok {
			snap = last
			page.Stale = true
		}
	} else {
		s.snapshots.Add(principal.SessionID, snap)
	}

	form := s.schema.NewForm()
	if editID := c.Query("edit"); editID != "" {
		if record, ok := service.Find(snap.Records, editID); ok {
			form = s.schema.FormFrom(record)
			page.EditID = editID
		} else if err == nil {
			page.Banner = s.schema.Singular + " not found"
		}
	}

	s.fill(page, snap, form.Values(), nil)
	return s.render(c, fiber.StatusOK, page)
}

// Create handles POST /<screen>.
func (s *ResourceScreen[T]) Create(c *fiber.Ctx) error {
	return s.submit(c, "")
}

// Update handles POST /<screen>/:id.
func (s *ResourceScreen[T]) Update(c *fiber.Ctx) error {
	return s.submit(c, c.Params("id"))
}

// submit validates and sends the form. Rejected input is rendered again as entered.
func (s *ResourceScreen[T]) submit(c *fiber.Ctx, id string) error {
	principal := principalOf(c)
	ctx := c.UserContext()
	creating := id == ""

	form := s.schema.NewForm()
	if err := c.BodyParser(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form submission")
	}

	err := form.Validate(creating)
	if err == nil {
		if creating {
			err = s.records.Create(ctx, principal, form.Payload(true))
		} else {
			err = s.records.Update(ctx, principal, id, form.Payload(false))
		}
	}
	if err == nil {
		return c.Redirect("/"+s.schema.Name, fiber.StatusSeeOther)
	}
	if isSessionRejected(err) {
		return s.endSession(c, principal)
	}

	status := apperrors.ToDomainError(err).HTTPStatus
	if apperrors.IsValidation(err) {
		status = fiber.StatusUnprocessableEntity
	}
	page := s.newPage(principal)
	page.EditID = id
	page.FormError = apperrors.UserMessage(err)
	s.fill(page, s.lastGood(ctx, principal), form.Values(), dto.FieldErrorsOf(err))
	return s.render(c, status, page)
}

// ConfirmDelete handles GET /<screen>/:id/delete, the first step of a delete.
func (s *ResourceScreen[T]) ConfirmDelete(c *fiber.Ctx) error {
	principal := principalOf(c)
	id := c.Params("id")
	return s.renderConfirm(c, fiber.StatusOK, principal, id, "")
}

// Delete handles POST /<screen>/:id/delete. Nothing is sent to the API unless the
// request carries confirm=yes.
func (s *ResourceScreen[T]) Delete(c *fiber.Ctx) error {
	principal := principalOf(c)
	id := c.Params("id")
	if c.FormValue("confirm") != "yes" {
		return c.Redirect(s.deletePath(id), fiber.StatusSeeOther)
	}

	if err := s.records.Delete(c.UserContext(), principal, id); err != nil {
		if isSessionRejected(err) {
			return s.endSession(c, principal)
		}
		return s.renderConfirm(c, apperrors.ToDomainError(err).HTTPStatus, principal, id, apperrors.UserMessage(err))
	}
	return c.Redirect("/"+s.schema.Name, fiber.StatusSeeOther)
}

// fetch loads the list and the lookup list in parallel; both must succeed.
func (s *ResourceScreen[T]) fetch(ctx context.Context, principal *auth.Principal) (listSnapshot[T], error) {
	var snap listSnapshot[T]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.records.List(gctx, principal)
		snap.Records = records
		return err
	})
	if s.schema.Lookup != nil {
		g.Go(func() error {
			options, err := s.schema.Lookup(gctx, principal)
			snap.Options = options
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return listSnapshot[T]{}, err
	}
	return snap, nil
}

// lastGood returns the cached list, fetching it when there is none yet.
func (s *ResourceScreen[T]) lastGood(ctx context.Context, principal *auth.Principal) listSnapshot[T] {
	if snap, ok := s.snapshots.Get(principal.SessionID); ok {
		return snap
	}
	snap, err := s.fetch(ctx, principal)
	if err != nil || ctx.Err() != nil {
		return listSnapshot[T]{}
	}
	s.snapshots.Add(principal.SessionID, snap)
	return snap
}

// endSession handles a token the API no longer accepts: the session is closed and the
// user is sent to sign in again.
func (s *ResourceScreen[T]) endSession(c *fiber.Ctx, principal *auth.Principal) error {
	s.logger.Info("clinic api rejected session token")
	s.snapshots.Remove(principal.SessionID)
	if s.auth != nil {
		s.auth.Logout(c.UserContext(), principal)
	}
	s.cookie.Clear(c)
	return c.Redirect(LoginPath+"?next="+url.QueryEscape("/"+s.schema.Name), fiber.StatusSeeOther)
}

func (s *ResourceScreen[T]) deletePath(id string) string {
	return "/" + s.schema.Name + "/" + url.PathEscape(id) + "/delete"
}

type screenPage struct {
	Title     string
	Name      string
	Singular  string
	User      *domain.Identity
	Query     string
	EditID    string
	Banner    string
	FormError string
	Stale     bool
	Columns   []string
	Rows      []screenRow
	Fields    []fieldView
}

type screenRow struct {
	ID    string
	Cells []string
}

type fieldView struct {
	Field
	Value string
	Error string
}

func (s *ResourceScreen[T]) newPage(principal *auth.Principal) *screenPage {
	return &screenPage{
		Title:    s.schema.Title,
		Name:     s.schema.Name,
		Singular: s.schema.Singular,
		User:     principal.Identity,
	}
}

func (s *ResourceScreen[T]) fill(page *screenPage, snap listSnapshot[T], values, fieldErrors map[string]string) {
	lookup := make(map[string]string, len(snap.Options))
	for _, o := range snap.Options {
		lookup[o.Value] = o.Label
	}

	page.Columns = make([]string, 0, len(s.schema.Columns))
	for _, col := range s.schema.Columns {
		page.Columns = append(page.Columns, col.Label)
	}
	for _, record := range service.Filter(snap.Records, page.Query) {
		row := screenRow{ID: record.RecordID(), Cells: make([]string, 0, len(s.schema.Columns))}
		for _, col := range s.schema.Columns {
			row.Cells = append(row.Cells, col.Value(record, lookup))
		}
		page.Rows = append(page.Rows, row)
	}

	page.Fields = make([]fieldView, 0, len(s.schema.Fields))
	for _, f := range s.schema.Fields {
		if f.Lookup {
			f.Options = snap.Options
		}
		page.Fields = append(page.Fields, fieldView{Field: f, Value: values[f.Name], Error: fieldErrors[f.Name]})
	}
}

func (s *ResourceScreen[T]) render(c *fiber.Ctx, status int, page *screenPage) error {
	return c.Status(status).Render("screen", page, views.Layout)
}

func (s *ResourceScreen[T]) renderConfirm(c *fiber.Ctx, status int, principal *auth.Principal, id, banner string) error {
	label := id
	if snap, ok := s.snapshots.Get(principal.SessionID); ok {
		if record, found := service.Find(snap.Records, id); found && s.schema.Label != nil {
			label = s.schema.Label(record)
		}
	}
	return c.Status(status).Render("confirm_delete", fiber.Map{
		"Title":    "Delete " + s.schema.Singular,
		"User":     principal.Identity,
		"Name":     s.schema.Name,
		"Singular": s.schema.Singular,
		"ID":       id,
		"Label":    label,
		"Banner":   banner,
	}, views.Layout)
}

func principalOf(c *fiber.Ctx) *auth.Principal {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal
	}
	return &auth.Principal{}
}

func isSessionRejected(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeUnauthorized)
}
