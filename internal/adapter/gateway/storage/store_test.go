package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
)

type storeFactory struct {
	name string
	open func(t *testing.T) output.KeyValueStore
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{"memory", func(t *testing.T) output.KeyValueStore { return NewMemoryStore() }},
		{"file", func(t *testing.T) output.KeyValueStore {
			s, err := NewFileStore(afero.NewMemMapFs(), "/home/.loopkit/store")
			require.NoError(t, err)
			return s
		}},
		{"sqlite", func(t *testing.T) output.KeyValueStore {
			s, err := OpenSQLiteStore(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}},
		{"s3", func(t *testing.T) output.KeyValueStore {
			return NewS3StoreWithClient(NewMockS3Client(), "test-bucket", "loopkit/test")
		}},
	}
}

func TestKeyValueStore_Contract(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := f.open(t)

			// Absent key yields nil without error
			got, err := store.Get(ctx, output.KeyCurrentExecution)
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, store.Set(ctx, output.KeyCurrentExecution, []byte(`{"id":"one"}`)))
			got, err = store.Get(ctx, output.KeyCurrentExecution)
			require.NoError(t, err)
			assert.Equal(t, `{"id":"one"}`, string(got))

			// Overwrite
			require.NoError(t, store.Set(ctx, output.KeyCurrentExecution, []byte(`{"id":"two"}`)))
			got, err = store.Get(ctx, output.KeyCurrentExecution)
			require.NoError(t, err)
			assert.Equal(t, `{"id":"two"}`, string(got))

			require.NoError(t, store.Remove(ctx, output.KeyCurrentExecution))
			got, err = store.Get(ctx, output.KeyCurrentExecution)
			require.NoError(t, err)
			assert.Nil(t, got)

			// Removing an absent key is fine
			require.NoError(t, store.Remove(ctx, output.KeyCurrentExecution))
		})
	}
}

func TestKeyValueStore_RemoveMany(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := f.open(t)

			keys := []string{output.KeyCurrentExecution, output.KeyBackgroundSnapshot, output.KeyExecutionHistory}
			for _, k := range keys {
				require.NoError(t, store.Set(ctx, k, []byte("x")))
			}

			require.NoError(t, store.RemoveMany(ctx, keys[:2]))

			for _, k := range keys[:2] {
				v, err := store.Get(ctx, k)
				require.NoError(t, err)
				assert.Nil(t, v, k)
			}
			v, err := store.Get(ctx, output.KeyExecutionHistory)
			require.NoError(t, err)
			assert.Equal(t, "x", string(v))
		})
	}
}

func TestKeyValueStore_RejectsUnsafeKeys(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			err := f.open(t).Set(context.Background(), "../escape", []byte("x"))
			assert.Error(t, err)
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'z'

	got, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
	got[1] = 'z'

	again, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, store.Len())
}

func TestFileStore_Layout(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewFileStore(fs, "/data/store")
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), output.KeyScheduledLoops, []byte("[]")))

	content, err := afero.ReadFile(fs, "/data/store/scheduled_loops.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(content))
	assert.Equal(t, "/data/store/scheduled_loops.json", store.GetStoragePath(output.KeyScheduledLoops))
}

func TestS3Store_ObjectLayout(t *testing.T) {
	client := NewMockS3Client()
	store := NewS3StoreWithClient(client, "bucket", "loopkit/phone")

	require.NoError(t, store.Set(context.Background(), output.KeyPreferences, []byte("{}")))
	assert.True(t, client.HasObject("bucket", "loopkit/phone/loop_execution_preferences.json"))

	unprefixed := NewS3StoreWithClient(client, "bucket", "")
	require.NoError(t, unprefixed.Set(context.Background(), output.KeyPreferences, []byte("{}")))
	assert.True(t, client.HasObject("bucket", "loop_execution_preferences.json"))
	assert.Equal(t, 2, client.GetObjectCount())
}

func TestS3Store_PropagatesErrors(t *testing.T) {
	client := NewMockS3Client()
	store := NewS3StoreWithClient(client, "bucket", "")
	client.FailWith(errors.New("throttled"))

	_, err := store.Get(context.Background(), output.KeyPreferences)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	err = store.Set(context.Background(), output.KeyPreferences, []byte("{}"))
	assert.Error(t, err)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
