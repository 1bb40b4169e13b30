package main

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/sitemap"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/directive"
	"github.com/aquilax/itemboard/effects"
	"github.com/aquilax/itemboard/item"
)

const (
	feedItems    = 20
	sitemapItems = 1000
	feedTitleLen = 80
)

type ItemBoard struct {
	config   *Config
	log      zerolog.Logger
	m        *Model
	tp       *TransPool
	sg       *SpamGuard
	redactor *effects.Redactor
	db       database.Database
	now      func() time.Time
}

type appHandler func(http.ResponseWriter, *http.Request) error

// ItemView is an item as the API returns it.
type ItemView struct {
	item.Item
	Href   string `json:"href"`
	HTML   string `json:"html"`
	Avatar string `json:"avatar"`
	Job    bool   `json:"isJob"`
}

func NewItemBoard(config *Config, log zerolog.Logger, db database.Database, queue effects.Submitter, now func() time.Time) *ItemBoard {
	if now == nil {
		now = time.Now
	}
	block, _ := config.postBlock()
	redactor := effects.NewRedactor(db, log, now, config.Items.CommentDepthLimit)
	enqueuer := effects.NewEnqueuer(queue, log, now)
	return &ItemBoard{
		config:   config,
		log:      log,
		m:        NewModel(db, enqueuer, redactor, config.Items, log, now),
		tp:       NewTransPool(config.Translations, log),
		sg:       NewSpamGuard(block, now),
		redactor: redactor,
		db:       db,
		now:      now,
	}
}

// JobHandlers returns the handlers for the jobs the board enqueues.
func (b *ItemBoard) JobHandlers() *effects.Handlers {
	return effects.NewHandlers(b.redactor, effects.NewPublisher(b.db, b.log, b.now), b.log)
}

func (b *ItemBoard) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.logRequests)
	r.Handle("/", appHandler(b.indexHandler)).Methods("GET")
	r.Handle("/feed.xml", appHandler(b.feedHandler)).Methods("GET")
	r.Handle("/sitemap.xml", appHandler(b.sitemapHandler)).Methods("GET")

	r.Handle("/items", appHandler(b.addHandler)).Methods("POST")
	r.Handle("/items/{id:[0-9]+}", appHandler(b.itemHandler)).Methods("GET")
	r.Handle("/items/{id:[0-9]+}/{slug}", appHandler(b.itemHandler)).Methods("GET")
	r.Handle("/items/{id:[0-9]+}/edit", appHandler(b.editHandler)).Methods("POST")
	r.Handle("/items/{id:[0-9]+}/delete", appHandler(b.deleteHandler)).Methods("POST")
	r.Handle("/items/{id:[0-9]+}/vote", appHandler(b.voteHandler)).Methods("POST")
	return r
}

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := fn(w, r); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, database.ErrDeleted) {
			http.Error(w, "Item was deleted", http.StatusGone)
			return
		}
		var httpError *HTTPError
		if errors.As(err, &httpError) {
			http.Error(w, httpError.Error(), httpError.Code)
			return
		}
		// Default to 500 Internal Server Error
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (b *ItemBoard) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		ev := b.log.Debug()
		if rec.status >= http.StatusInternalServerError {
			ev = b.log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func getPageNumber(pageStr string) int {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	return page - 1
}

func getItemID(r *http.Request) (item.ID, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, &HTTPError{Err: err, Message: "Invalid item id", Code: http.StatusBadRequest}
	}
	return id, nil
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func baseURL(r *http.Request) string {
	return "http://" + r.Host
}

func (b *ItemBoard) session() *Session {
	return NewSession(&b.config.Site, b.tp.Get(b.config.Language))
}

func newItemView(baseURL string, it *item.Item, depthLimit int) ItemView {
	return ItemView{
		Item:   *it,
		Href:   getURL(baseURL, it, depthLimit),
		HTML:   renderText(it.Text),
		Avatar: hfGravatar(it.TripCode),
		Job:    it.IsJob(),
	}
}

func (b *ItemBoard) views(r *http.Request, nl *item.List) []ItemView {
	result := make([]ItemView, 0, len(*nl))
	for i := range *nl {
		result = append(result, newItemView(baseURL(r), &(*nl)[i], b.config.Items.CommentDepthLimit))
	}
	return result
}

func (b *ItemBoard) indexHandler(w http.ResponseWriter, r *http.Request) error {
	page := getPageNumber(r.URL.Query().Get("page"))
	nl, total, err := b.m.getChildItems(r.Context(), nil, item.SortHot, page)
	if err != nil {
		return err
	}
	s := b.session()
	s.Set("items", b.views(r, nl))
	s.Set("pagination", Pagination(PaginationConfig{
		page:  page + 1,
		ipp:   b.config.Items.PerPage,
		total: total,
		url:   "?",
		param: "page",
	}))
	return s.render(w, http.StatusOK)
}

func (b *ItemBoard) itemHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := getItemID(r)
	if err != nil {
		return err
	}
	it, err := b.m.getItem(r.Context(), id)
	if err != nil {
		return err
	}
	if it.ScheduledAt != nil {
		// Not published yet.
		return database.ErrNotFound
	}
	mode := b.m.commentSort(it)
	pageURL := "?"
	if q := r.URL.Query().Get("sort"); q != "" {
		if mode, err = item.ParseSortMode(q); err != nil {
			return &HTTPError{Err: err, Message: err.Error(), Code: http.StatusBadRequest}
		}
		pageURL = "?sort=" + url.QueryEscape(q)
	}
	page := getPageNumber(r.URL.Query().Get("page"))
	children, total, err := b.m.getChildItems(r.Context(), &it.ID, mode, page)
	if err != nil {
		return err
	}
	root, err := b.m.subTreeRootID(it)
	if err != nil {
		return err
	}
	s := b.session()
	s.Set("item", newItemView(baseURL(r), it, b.config.Items.CommentDepthLimit))
	s.Set("subTreeRootId", root)
	s.Set("sort", mode)
	s.Set("items", b.views(r, children))
	s.Set("pagination", Pagination(PaginationConfig{
		page:  page + 1,
		ipp:   b.config.Items.PerPage,
		total: total,
		url:   pageURL,
		param: "page",
	}))
	return s.render(w, http.StatusOK)
}

func (b *ItemBoard) addHandler(w http.ResponseWriter, r *http.Request) error {
	s := b.session()
	if inHoneypot(r.FormValue("name")) {
		return s.render(w, http.StatusAccepted)
	}
	n, errs := b.validateForm(r, s.ln)
	if len(errs) > 0 {
		s.Set("errors", errs)
		return s.render(w, http.StatusUnprocessableEntity)
	}
	b.warnDirectives(s, n.Text)
	id, err := b.m.addItem(r.Context(), &n)
	if errors.Is(err, database.ErrNotFound) && id == 0 {
		s.Set("errors", ValidationErrors{s.Lang("Parent item not found")})
		return s.render(w, http.StatusUnprocessableEntity)
	}
	if err != nil {
		return err
	}
	view := newItemView(baseURL(r), &n, b.config.Items.CommentDepthLimit)
	s.Set("item", view)
	w.Header().Set("Location", view.Href)
	return s.render(w, http.StatusCreated)
}

// authorize loads the item and checks the password against its tripcode.
func (b *ItemBoard) authorize(r *http.Request) (*item.Item, error) {
	id, err := getItemID(r)
	if err != nil {
		return nil, err
	}
	it, err := b.m.getItem(r.Context(), id)
	if err != nil {
		return nil, err
	}
	tc := getTripCode(r.FormValue("password"))
	if it.TripCode == "" || tc != it.TripCode {
		return nil, &HTTPError{Message: b.session().Lang("Wrong password"), Code: http.StatusForbidden}
	}
	return it, nil
}

func (b *ItemBoard) editHandler(w http.ResponseWriter, r *http.Request) error {
	it, err := b.authorize(r)
	if err != nil {
		return err
	}
	s := b.session()
	edit, errs := b.validateContent(r, s.ln, it.ParentID == nil)
	if len(errs) > 0 {
		s.Set("errors", errs)
		return s.render(w, http.StatusUnprocessableEntity)
	}
	b.warnDirectives(s, edit.Text)
	updated, err := b.m.editItem(r.Context(), it, edit)
	if err != nil {
		return err
	}
	s.Set("item", newItemView(baseURL(r), updated, b.config.Items.CommentDepthLimit))
	return s.render(w, http.StatusOK)
}

func (b *ItemBoard) deleteHandler(w http.ResponseWriter, r *http.Request) error {
	it, err := b.authorize(r)
	if err != nil {
		return err
	}
	updated, err := b.m.deleteItem(r.Context(), it)
	if err != nil {
		return err
	}
	s := b.session()
	s.Set("item", newItemView(baseURL(r), updated, b.config.Items.CommentDepthLimit))
	return s.render(w, http.StatusOK)
}

func (b *ItemBoard) voteHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := getItemID(r)
	if err != nil {
		return err
	}
	s := b.session()
	vote := getVote(r.FormValue("vote"))
	if vote == 0 {
		s.Set("errors", ValidationErrors{s.Lang("Invalid vote")})
		return s.render(w, http.StatusUnprocessableEntity)
	}
	if err := b.m.vote(r.Context(), id, vote); err != nil {
		return err
	}
	it, err := b.m.getItem(r.Context(), id)
	if err != nil {
		return err
	}
	s.Set("item", newItemView(baseURL(r), it, b.config.Items.CommentDepthLimit))
	return s.render(w, http.StatusOK)
}

func feedTitle(it *item.Item) string {
	if t := it.TitleString(); t != "" {
		return t
	}
	text := []rune(strings.TrimSpace(it.Text))
	if len(text) > feedTitleLen {
		return string(text[:feedTitleLen]) + "..."
	}
	return string(text)
}

func (b *ItemBoard) feedHandler(w http.ResponseWriter, r *http.Request) error {
	nl, err := b.m.getRecentItems(r.Context(), feedItems)
	if err != nil {
		return err
	}
	sc := b.config.Site
	feed := &feeds.Feed{
		Title:       sc.Title,
		Link:        &feeds.Link{Href: baseURL(r)},
		Description: sc.Description,
		Author:      &feeds.Author{Name: sc.AuthorName, Email: sc.AuthorEmail},
		Created:     b.now(),
	}
	for i := range *nl {
		it := &(*nl)[i]
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       feedTitle(it),
			Link:        &feeds.Link{Href: getURL(baseURL(r), it, b.config.Items.CommentDepthLimit)},
			Description: renderText(it.Text),
			Created:     it.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/rss+xml")
	return feed.WriteRss(w)
}

func (b *ItemBoard) sitemapHandler(w http.ResponseWriter, r *http.Request) error {
	nl, err := b.m.getTopItems(r.Context(), sitemapItems)
	if err != nil {
		return err
	}
	var urlSet sitemap.URLSet
	for i := range *nl {
		n := (*nl)[i]
		lastMod := n.UpdatedAt
		urlSet.URLs = append(urlSet.URLs, sitemap.URL{
			Loc:        baseURL(r) + itemPath(n.ID, n.TitleString()),
			LastMod:    &lastMod,
			ChangeFreq: sitemap.Daily,
			Priority:   0.7,
		})
	}
	xml, err := sitemap.Marshal(&urlSet)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/xml")
	_, err = w.Write(xml)
	return err
}

func validURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateContent checks the editable part of an item. Top level items need
// a title, comments need text.
func (b *ItemBoard) validateContent(r *http.Request, ln *Language, topLevel bool) (ItemEdit, ValidationErrors) {
	edit := ItemEdit{Text: strings.TrimSpace(r.FormValue("text"))}
	errors := ValidationErrors{}
	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		edit.Title = &title
	}
	if u := strings.TrimSpace(r.FormValue("url")); u != "" {
		if validURL(u) {
			edit.URL = &u
		} else {
			errors = append(errors, ln.Lang("Invalid URL"))
		}
	}
	if topLevel && (edit.Title == nil || len(*edit.Title) < 3) {
		errors = append(errors, ln.Lang("Title must be at least 3 characters long"))
	}
	if !topLevel && len(edit.Text) == 0 {
		errors = append(errors, ln.Lang("Please, write something"))
	} else if len(edit.Text) > 0 && len(strings.TrimSpace(renderText(edit.Text))) == 0 {
		// Check again after the rendering
		errors = append(errors, ln.Lang("Please, write something"))
	}
	return edit, errors
}

func (b *ItemBoard) validateForm(r *http.Request, ln *Language) (item.Item, ValidationErrors) {
	n := item.Item{TripCode: getTripCode(r.FormValue("password"))}
	if b.config.Items.moderator(n.TripCode) {
		n.Pinned = r.FormValue("pinned") == "on"
		n.Bio = r.FormValue("bio") == "on"
	}
	errors := ValidationErrors{}
	if !b.sg.CanPost(remoteHost(r)) {
		errors = append(errors, ln.Lang("Please wait before posting again"))
	}
	if pid := r.FormValue("parent_id"); pid != "" {
		id, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			errors = append(errors, ln.Lang("Parent item not found"))
		} else {
			n.ParentID = &id
		}
	}
	edit, contentErrors := b.validateContent(r, ln, n.ParentID == nil)
	n.Title = edit.Title
	n.Text = edit.Text
	n.URL = edit.URL
	return n, append(errors, contentErrors...)
}

// warnDirectives flags directives the author wrote but that did not parse.
func (b *ItemBoard) warnDirectives(s *Session, text string) {
	now := b.now()
	if directive.HasDeleteMention(text) && !directive.ResolveDelete(text, now).OK {
		s.AddWarning("@delete directive was not recognised")
	}
	if directive.HasScheduleMention(text) && !directive.ResolveSchedule(text, now).OK {
		s.AddWarning("@schedule directive was not recognised")
	}
}
