package targets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// DefaultStorageKey is the store key holding every project's targets.
const DefaultStorageKey = "secretsObject"

var (
	ErrAlreadyExists = errors.New("target already exists")
	ErrNotFound      = errors.New("target not found")
)

// projects is the stored document: project ID -> target name -> target.
type projects map[string]map[string]Target

// Repository stores targets grouped by project in a single SecretStore
// entry. Read-modify-write cycles are serialized within the process only;
// concurrent writers in other processes are last-writer-wins.
type Repository struct {
	store  SecretStore
	key    string
	logger log.FieldLogger

	mu sync.Mutex
}

func NewRepository(logger log.FieldLogger, store SecretStore, key string) *Repository {
	if key == "" {
		key = DefaultStorageKey
	}
	return &Repository{
		store:  store,
		key:    key,
		logger: logger.WithField("component", "targets"),
	}
}

func (r *Repository) read(ctx context.Context) (projects, error) {
	raw, err := r.store.GetSecret(ctx, r.key)
	if errors.Is(err, ErrSecretNotFound) || (err == nil && len(raw) == 0) {
		return projects{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read targets: %w", err)
	}
	var p projects
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("stored targets are not valid JSON: %w", err)
	}
	if p == nil {
		p = projects{}
	}
	return p, nil
}

func (r *Repository) write(ctx context.Context, p projects) error {
	if len(p) == 0 {
		if err := r.store.DeleteSecret(ctx, r.key); err != nil {
			return fmt.Errorf("failed to delete targets: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode targets: %w", err)
	}
	if err := r.store.SetSecret(ctx, r.key, raw); err != nil {
		return fmt.Errorf("failed to write targets: %w", err)
	}
	return nil
}

// Get returns the targets of projectID keyed by name. An unknown project
// has no targets.
func (r *Repository) Get(ctx context.Context, projectID string) (map[string]Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Target, len(p[projectID]))
	for name, t := range p[projectID] {
		out[name] = t
	}
	return out, nil
}

// List returns the targets of projectID sorted by name.
func (r *Repository) List(ctx context.Context, projectID string) ([]Target, error) {
	m, err := r.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	list := make([]Target, 0, len(m))
	for _, t := range m {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Lookup returns one target.
func (r *Repository) Lookup(ctx context.Context, projectID, name string) (Target, error) {
	m, err := r.Get(ctx, projectID)
	if err != nil {
		return Target{}, err
	}
	t, ok := m[name]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s in project %s", ErrNotFound, name, projectID)
	}
	return t, nil
}

// Save stores a new target. It returns ErrAlreadyExists, leaving the store
// untouched, when the project already has a target with that name.
func (r *Repository) Save(ctx context.Context, projectID string, t Target) error {
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("project ID cannot be empty")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.read(ctx)
	if err != nil {
		return err
	}
	if _, exists := p[projectID][t.Name]; exists {
		return fmt.Errorf("%w: %s in project %s", ErrAlreadyExists, t.Name, projectID)
	}
	if p[projectID] == nil {
		p[projectID] = make(map[string]Target)
	}
	t.ProjectID = projectID
	p[projectID][t.Name] = t
	if err := r.write(ctx, p); err != nil {
		return err
	}
	r.logger.WithFields(log.Fields{"project": projectID, "target": t.Name}).Infof("stored target")
	return nil
}

// Update merges u into an existing target.
func (r *Repository) Update(ctx context.Context, projectID, name string, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.read(ctx)
	if err != nil {
		return err
	}
	t, ok := p[projectID][name]
	if !ok {
		return fmt.Errorf("%w: %s in project %s", ErrNotFound, name, projectID)
	}
	p[projectID][name] = t.Apply(u)
	if err := r.write(ctx, p); err != nil {
		return err
	}
	r.logger.WithFields(log.Fields{"project": projectID, "target": name}).Infof("updated target")
	return nil
}

// Delete removes a target. Removing the last target of a project removes
// the project entry as well.
func (r *Repository) Delete(ctx context.Context, projectID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.read(ctx)
	if err != nil {
		return err
	}
	if _, ok := p[projectID][name]; !ok {
		return fmt.Errorf("%w: %s in project %s", ErrNotFound, name, projectID)
	}
	delete(p[projectID], name)
	if len(p[projectID]) == 0 {
		delete(p, projectID)
	}
	if err := r.write(ctx, p); err != nil {
		return err
	}
	r.logger.WithFields(log.Fields{"project": projectID, "target": name}).Infof("deleted target")
	return nil
}
