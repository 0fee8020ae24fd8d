package targets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTarget(name string) Target {
	return Target{
		Name:           name,
		AccessKey:      "AKIA" + name,
		SecretKey:      "s3cr3t/+" + name,
		Region:         "us-east-1",
		InputLocation:  "s3://cur-bucket/" + name + "/",
		OutputLocation: "s3://athena-results/" + name + "/",
	}
}

func newTestRepository(t *testing.T) (*Repository, *MemoryStore) {
	store := NewMemoryStore()
	return NewRepository(logrus.New(), store, ""), store
}

func storedProjects(t *testing.T, store SecretStore) map[string]map[string]Target {
	raw, err := store.GetSecret(context.Background(), DefaultStorageKey)
	require.NoError(t, err)
	var p map[string]map[string]Target
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func TestRepositorySave(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)

	require.NoError(t, repo.Save(ctx, "proj-1", testTarget("prod")))
	before, err := store.GetSecret(ctx, DefaultStorageKey)
	require.NoError(t, err)

	dup := testTarget("prod")
	dup.Region = "eu-west-1"
	err = repo.Save(ctx, "proj-1", dup)
	assert.True(t, errors.Is(err, ErrAlreadyExists), "expected ErrAlreadyExists, got %v", err)

	after, err := store.GetSecret(ctx, DefaultStorageKey)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a rejected save leaves the store unchanged")

	// the same name in another project is a different target
	require.NoError(t, repo.Save(ctx, "proj-2", testTarget("prod")))

	got, err := repo.Get(ctx, "proj-1")
	require.NoError(t, err)
	expected := testTarget("prod")
	expected.ProjectID = "proj-1"
	assert.Equal(t, map[string]Target{"prod": expected}, got)

	assert.Error(t, repo.Save(ctx, "", testTarget("x")))
	assert.Error(t, repo.Save(ctx, "proj-1", Target{}))
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.Save(ctx, "proj", testTarget("prod")))

	before, err := repo.Lookup(ctx, "proj", "prod")
	require.NoError(t, err)

	region := "x"
	require.NoError(t, repo.Update(ctx, "proj", "prod", Update{Region: &region}))

	after, err := repo.Lookup(ctx, "proj", "prod")
	require.NoError(t, err)
	assert.Equal(t, "x", after.Region)
	after.Region = before.Region
	assert.Equal(t, before, after, "fields other than region are unchanged")

	err = repo.Update(ctx, "proj", "missing", Update{Region: &region})
	assert.True(t, errors.Is(err, ErrNotFound))
	err = repo.Update(ctx, "other", "prod", Update{Region: &region})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)
	require.NoError(t, repo.Save(ctx, "proj-1", testTarget("a")))
	require.NoError(t, repo.Save(ctx, "proj-1", testTarget("b")))
	require.NoError(t, repo.Save(ctx, "proj-2", testTarget("c")))

	require.NoError(t, repo.Delete(ctx, "proj-1", "a"))
	p := storedProjects(t, store)
	require.Contains(t, p, "proj-1")
	assert.Len(t, p["proj-1"], 1)
	assert.Equal(t, "AKIAb", p["proj-1"]["b"].AccessKey, "siblings are untouched")

	require.NoError(t, repo.Delete(ctx, "proj-1", "b"))
	p = storedProjects(t, store)
	assert.NotContains(t, p, "proj-1", "deleting the last target removes the project")
	assert.Contains(t, p, "proj-2")

	err := repo.Delete(ctx, "proj-1", "b")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, repo.Delete(ctx, "proj-2", "c"))
	_, err = store.GetSecret(ctx, DefaultStorageKey)
	assert.True(t, errors.Is(err, ErrSecretNotFound), "an empty document is removed from the store")

	list, err := repo.List(ctx, "proj-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRepositoryCorruptDocument(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)
	require.NoError(t, store.SetSecret(ctx, DefaultStorageKey, []byte("{not json")))

	_, err := repo.Get(ctx, "proj")
	assert.Error(t, err)
	assert.Error(t, repo.Save(ctx, "proj", testTarget("a")))

	raw, err := store.GetSecret(ctx, DefaultStorageKey)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw), "a corrupt document is never overwritten")
}

func TestRepositoryStoredLayout(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)
	require.NoError(t, repo.Save(ctx, "proj", testTarget("prod")))

	raw, err := store.GetSecret(ctx, DefaultStorageKey)
	require.NoError(t, err)
	var doc map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, map[string]string{
		"projectId":  "proj",
		"targetName": "prod",
		"accessKey":  "AKIAprod",
		"secretKey":  "s3cr3t/+prod",
		"region":     "us-east-1",
		"cururl":     "s3://cur-bucket/prod/",
		"output":     "s3://athena-results/prod/",
	}, doc["proj"]["prod"])
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "nested", "targets.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.GetSecret(ctx, "k")
	assert.True(t, errors.Is(err, ErrSecretNotFound))

	require.NoError(t, store.SetSecret(ctx, "k", []byte("v1")))
	require.NoError(t, store.SetSecret(ctx, "k", []byte("v2")))
	v, err := store.GetSecret(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, store.DeleteSecret(ctx, "k"))
	_, err = store.GetSecret(ctx, "k")
	assert.True(t, errors.Is(err, ErrSecretNotFound))

	repo := NewRepository(logrus.New(), store, "")
	require.NoError(t, repo.Save(ctx, "proj", testTarget("prod")))
	got, err := repo.Lookup(ctx, "proj", "prod")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t/+prod", got.SecretKey)
}

func TestTargetValidateAndApply(t *testing.T) {
	assert.NoError(t, testTarget("prod").Validate())
	err := Target{Name: "x", Region: "r"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "target is missing required fields: accessKey, secretKey, cururl, output", err.Error())

	original := testTarget("prod")
	changed := testTarget("prod")
	changed.Region = "ap-south-1"
	changed.SecretKey = "rotated"
	assert.Equal(t, original, changed.Apply(original.Restore()))
	assert.True(t, Update{}.Empty())
	assert.False(t, original.Restore().Empty())
}
