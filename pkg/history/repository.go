package history

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/layout"
	"github.com/matzehuels/gitdraw/pkg/observability"
)

// Defaults applied by New.
const (
	DefaultName   = "UnnamedHistoryView"
	DefaultBranch = "master"
)

// Config describes the initial state of a history view.
type Config struct {
	// Name identifies the view. Defaults to DefaultName.
	Name string

	// CurrentBranch is the branch HEAD starts on. Defaults to DefaultBranch.
	// When commits are given the branch must resolve to one of them.
	CurrentBranch string

	// Commits are created in order. Parents must come before children;
	// an empty parent means the root commit.
	Commits []CommitData

	// Params sizes the view. Zero fields take the layout defaults.
	Params layout.Params
}

// Option configures a Repository.
type Option func(*Repository)

// WithRenderer sets the renderer notified after every mutation.
func WithRenderer(rd Renderer) Option {
	return func(r *Repository) {
		if rd != nil {
			r.renderer = rd
		}
	}
}

// WithLogger sets the logger. Operations log at debug level.
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithIDFunc replaces the generator used for commits without an id.
func WithIDFunc(f IDFunc) Option {
	return func(r *Repository) {
		if f != nil {
			r.newID = f
		}
	}
}

// Repository is one history view: the commit store, the current branch,
// the branch registry, and the last layout.
type Repository struct {
	name          string
	params        layout.Params
	store         *Store
	currentBranch string
	branches      []string
	layout        *layout.Layout

	renderer Renderer
	logger   *log.Logger
	newID    IDFunc
}

// New creates a repository from cfg, lays it out, places HEAD on the current
// branch, and draws it once.
func New(cfg Config, opts ...Option) (*Repository, error) {
	r := &Repository{
		name:          cfg.Name,
		params:        cfg.Params.WithDefaults(),
		store:         NewStore(),
		currentBranch: cfg.CurrentBranch,
		branches:      []string{HeadRef},
		renderer:      NopRenderer{},
		logger:        log.New(io.Discard),
		newID:         RandomID,
	}
	if r.name == "" {
		r.name = DefaultName
	}
	if r.currentBranch == "" {
		r.currentBranch = DefaultBranch
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.params.Validate(); err != nil {
		return nil, err
	}
	if err := errors.ValidateRefName(r.currentBranch); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "current branch %q", r.currentBranch)
	}
	if r.currentBranch == HeadRef {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "current branch cannot be %s", HeadRef)
	}
	if err := r.seed(cfg.Commits); err != nil {
		return nil, err
	}

	if r.store.Len() == 0 {
		// Unborn branch: nothing for HEAD to point at until the first commit.
		if err := r.publish(); err != nil {
			return nil, err
		}
	} else if err := r.checkout(r.currentBranch); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "current branch %q", r.currentBranch)
	}

	r.logger.Debug("history view created",
		"name", r.name,
		"commits", r.store.Len(),
		"branch", r.currentBranch)
	return r, nil
}

// seed validates and stores the configured commits.
func (r *Repository) seed(data []CommitData) error {
	nodes := make([]layout.Node, 0, len(data))
	for i, d := range data {
		c, err := r.prepare(d, func() (string, error) { return RootID, nil })
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "commit %d", i)
		}
		if c.HasTag(HeadRef) {
			return errors.New(errors.ErrCodeInvalidConfig,
				"commit %d (%s): %s is placed automatically", i, c.ID, HeadRef)
		}
		r.store.append(c)
		nodes = append(nodes, layout.Node{ID: c.ID, Parent: c.Parent})
	}
	r.registerTags()

	l, err := r.computeLayout(nodes)
	if err != nil {
		return err
	}
	r.layout = l
	return nil
}

// =============================================================================
// Mutating Operations
// =============================================================================

// Commit appends a new commit and advances the current branch to it. When
// HEAD is detached, an explicit parent is required and HEAD itself moves.
//
// The returned commit reflects the stored record after the move.
func (r *Repository) Commit(data CommitData) (Commit, error) {
	start := time.Now()
	c, err := r.commit(data)
	r.observe("commit", data.Parent, start, err)
	return c, err
}

func (r *Repository) commit(data CommitData) (Commit, error) {
	c, err := r.prepare(data, r.implicitParent)
	if err != nil {
		return Commit{}, err
	}
	if c.HasTag(HeadRef) {
		return Commit{}, errors.Validation("%s cannot be assigned directly", HeadRef)
	}

	// Lay out the candidate first so a failure leaves nothing behind.
	nodes := append(r.nodes(), layout.Node{ID: c.ID, Parent: c.Parent})
	l, err := r.computeLayout(nodes)
	if err != nil {
		return Commit{}, err
	}

	r.store.append(c)
	r.layout = l

	if r.Detached() {
		err = r.checkout(c.ID)
	} else {
		r.store.moveTag(r.currentBranch, c.ID)
		err = r.checkout(r.currentBranch)
	}
	if err != nil {
		return Commit{}, err
	}

	r.logger.Debug("commit",
		"id", c.ID,
		"parent", c.Parent,
		"branch", r.currentBranch)
	return r.store.Resolve(c.ID)
}

// prepare fills in defaults for d and validates it against the store.
func (r *Repository) prepare(d CommitData, defaultParent func() (string, error)) (Commit, error) {
	c := Commit{ID: d.ID, Tags: slices.Clone(d.Tags)}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	if c.ID == "" {
		id, err := r.nextID()
		if err != nil {
			return Commit{}, err
		}
		c.ID = id
	} else {
		if err := errors.ValidateCommitID(c.ID); err != nil {
			return Commit{}, err
		}
		if c.ID == RootID || c.ID == HeadRef {
			return Commit{}, errors.New(errors.ErrCodeInvalidCommit, "commit id %q is reserved", c.ID)
		}
		if r.store.Contains(c.ID) {
			return Commit{}, errors.New(errors.ErrCodeInvalidCommit, "commit %q already exists", c.ID)
		}
		if r.isBranch(c.ID) {
			return Commit{}, errors.New(errors.ErrCodeInvalidCommit, "commit id %q names a branch", c.ID)
		}
	}

	for i, tag := range c.Tags {
		if err := errors.ValidateRefName(tag); err != nil {
			return Commit{}, err
		}
		if slices.Contains(c.Tags[:i], tag) {
			return Commit{}, errors.New(errors.ErrCodeInvalidRef, "tag %q listed twice", tag)
		}
		if _, held := r.store.Holder(tag); held {
			return Commit{}, errors.New(errors.ErrCodeInvalidRef, "ref %q already exists", tag)
		}
	}

	if d.Parent == "" {
		parent, err := defaultParent()
		if err != nil {
			return Commit{}, err
		}
		c.Parent = parent
		return c, nil
	}

	parent, err := r.store.Resolve(d.Parent)
	if err != nil {
		return Commit{}, err
	}
	c.Parent = parent.ID
	return c, nil
}

// isBranch reports whether name is a registered branch, a tag on any commit,
// or the current branch (which may be unborn).
func (r *Repository) isBranch(name string) bool {
	if name == r.currentBranch || slices.Contains(r.branches, name) {
		return true
	}
	_, held := r.store.Holder(name)
	return held
}

// implicitParent is the parent of a commit made without an explicit one.
func (r *Repository) implicitParent() (string, error) {
	if r.Detached() {
		return "", errors.InvalidState("not a good idea to make commits while in a detached HEAD state")
	}
	tip, err := r.store.Resolve(r.currentBranch)
	if err != nil {
		if r.store.Len() == 0 && errors.Is(err, errors.ErrCodeRefNotFound) {
			return RootID, nil
		}
		return "", err
	}
	return tip.ID, nil
}

// Branch creates a new ref named name on the commit HEAD points at. HEAD
// stays where it is.
func (r *Repository) Branch(name string) error {
	start := time.Now()
	err := r.branch(name)
	r.observe("branch", name, start, err)
	return err
}

func (r *Repository) branch(name string) error {
	if err := errors.ValidateRefName(name); err != nil {
		return err
	}
	if name == RootID {
		return errors.New(errors.ErrCodeInvalidRef, "%q is reserved", RootID)
	}
	if slices.Contains(r.branches, name) {
		return errors.New(errors.ErrCodeInvalidRef, "branch %q already exists", name)
	}
	if _, held := r.store.Holder(name); held {
		return errors.New(errors.ErrCodeInvalidRef, "ref %q already exists", name)
	}

	head, ok := r.store.Holder(HeadRef)
	if !ok {
		return errors.NotFound(HeadRef)
	}

	r.store.addTag(name, head.ID)
	if err := r.publish(); err != nil {
		return err
	}

	r.logger.Debug("branch", "name", name, "commit", head.ID)
	return nil
}

// Checkout moves HEAD to the commit ref resolves to. Checking out a commit
// id detaches HEAD; checking out any other ref attaches HEAD to it.
// Checking out "HEAD" keeps the current branch.
func (r *Repository) Checkout(ref string) error {
	start := time.Now()
	err := r.checkout(ref)
	r.observe("checkout", ref, start, err)
	if err == nil {
		r.logger.Debug("checkout", "ref", ref, "branch", r.currentBranch)
	}
	return err
}

func (r *Repository) checkout(ref string) error {
	target, err := r.resolveMovable(ref)
	if err != nil {
		return err
	}

	var previous string
	if head, ok := r.store.Holder(HeadRef); ok {
		previous = head.ID
	}

	switch ref {
	case target.ID:
		r.currentBranch = ""
	case HeadRef:
		// HEAD stays on whatever branch it was on.
	default:
		r.currentBranch = ref
	}
	r.store.moveTag(HeadRef, target.ID)

	if err := r.publish(); err != nil {
		return err
	}
	r.renderer.Emphasize(previous, target.ID)
	return nil
}

// Reset moves the current branch to the commit ref resolves to and checks
// it out. With a detached HEAD only HEAD moves.
func (r *Repository) Reset(ref string) error {
	start := time.Now()
	err := r.reset(ref)
	r.observe("reset", ref, start, err)
	if err == nil {
		r.logger.Debug("reset", "ref", ref, "branch", r.currentBranch)
	}
	return err
}

func (r *Repository) reset(ref string) error {
	target, err := r.resolveMovable(ref)
	if err != nil {
		return err
	}
	if r.Detached() {
		return r.checkout(target.ID)
	}
	r.store.moveTag(r.currentBranch, target.ID)
	return r.checkout(r.currentBranch)
}

// resolveMovable resolves a ref that HEAD or a branch may be moved to. The
// root commit cannot hold refs.
func (r *Repository) resolveMovable(ref string) (Commit, error) {
	c, err := r.store.Resolve(ref)
	if err != nil {
		return Commit{}, err
	}
	if c.IsRoot() {
		return Commit{}, errors.New(errors.ErrCodeInvalidRef, "%q is not a commit refs can point at", RootID)
	}
	return c, nil
}

// =============================================================================
// Layout and Publishing
// =============================================================================

// publish recomputes the layout, registers refs, and hands a fresh scene to
// the renderer.
func (r *Repository) publish() error {
	l, err := r.computeLayout(r.nodes())
	if err != nil {
		return err
	}
	r.layout = l
	r.registerTags()
	r.renderer.Draw(r.Scene())
	return nil
}

func (r *Repository) computeLayout(nodes []layout.Node) (*layout.Layout, error) {
	start := time.Now()
	l, err := layout.Compute(nodes, r.params)
	if err != nil {
		return nil, err
	}
	observability.History().OnLayout(context.Background(), len(nodes), l.Displacements, time.Since(start))
	return l, nil
}

func (r *Repository) nodes() []layout.Node {
	nodes := make([]layout.Node, 0, len(r.store.commits)+1)
	for _, c := range r.store.commits {
		nodes = append(nodes, layout.Node{ID: c.ID, Parent: c.Parent})
	}
	return nodes
}

// registerTags adds every tag found on a commit to the branch registry.
func (r *Repository) registerTags() {
	for _, c := range r.store.commits {
		for _, tag := range c.Tags {
			if !slices.Contains(r.branches, tag) {
				r.branches = append(r.branches, tag)
			}
		}
	}
}

func (r *Repository) observe(op, ref string, start time.Time, err error) {
	observability.History().OnOperation(context.Background(), op, ref, time.Since(start), err)
	if err != nil {
		r.logger.Debug(op+" rejected", "ref", ref, "err", err)
	}
}

// Close releases the renderer if it holds resources.
func (r *Repository) Close() error {
	if c, ok := r.renderer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
