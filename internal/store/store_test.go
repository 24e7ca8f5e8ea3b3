package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"os"
	"reflect"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/mines"
)

func setupTestStore() (*Store, func(), error) {
	f, err := os.CreateTemp("", "sqlite-storage-")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp file: %v", err)
	}

	s, err := Open(context.Background(), f.Name(), "teststore")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create new store: %v", err)
	}

	teardown := func() {
		s.Close()
		f.Close()
		os.Remove(f.Name())
	}

	return s, teardown, nil
}

func TestStoreBadName(t *testing.T) {
	f, err := os.CreateTemp("", "sqlite-storage-")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = Open(context.Background(), f.Name(), "drop table;")
	assert.ErrorIs(t, err, ErrBadName)
}

func TestStoreReadEmpty(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	var nothing struct{}
	if err = s.Get(context.Background(), "some key", &nothing); err != ErrNotFound {
		t.Fatalf("expected not found error, received %v", err)
	}
}

func TestStoreWriteAndReadPrimitive(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	key := "key"
	val := 1337
	if err = s.Set(ctx, key, val); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	var rtVal int
	if err = s.Get(ctx, key, &rtVal); err != nil {
		t.Fatalf("failed to get value: %v", err)
	}

	if val != rtVal {
		t.Fatalf("expected: %v, actual: %v", val, rtVal)
	}
}

func TestStoreWriteAndReadStruct(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	key := "key"
	val := mines.GameParams{Height: 16, Width: 30, MineCount: 99}
	if err = s.Set(ctx, key, val); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	var rtVal mines.GameParams
	if err = s.Get(ctx, key, &rtVal); err != nil {
		t.Fatalf("failed to get value: %v", err)
	}

	if !reflect.DeepEqual(val, rtVal) {
		t.Fatalf("expected: %v, actual: %v", val, rtVal)
	}
}

func TestStoreWriteAndReadNil(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	if err = s.Set(ctx, "key", 1337); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	if err = s.Get(ctx, "key", nil); err != nil {
		t.Fatalf("failed to get value: %v", err)
	}
}

func TestStoreUpdate(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	r := rand.New(rand.NewPCG(1, 2))
	key := "key"
	val := r.Int32()

	if err = s.Set(ctx, key, val); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	val = r.Int32()
	if err = s.Set(ctx, key, val); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	var rtVal int32
	if err = s.Get(ctx, key, &rtVal); err != nil {
		t.Fatalf("failed to get value: %v", err)
	}

	if val != rtVal {
		t.Fatalf("failed to update value (expected %v, actual %v)", val, rtVal)
	}
}

func TestStoreDelete(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	require.NoError(t, s.Delete(ctx, "something"))

	require.NoError(t, s.Set(ctx, "key", 1337))
	require.NoError(t, s.Delete(ctx, "key"))

	var rtVal int
	assert.ErrorIs(t, s.Get(ctx, "key", &rtVal), ErrNotFound)
}

func TestStoreCountAndKeys(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	rows := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
	for key, value := range rows {
		require.NoError(t, s.Set(ctx, key, value))
	}

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(rows), count)

	delete(rows, "a")
	require.NoError(t, s.Delete(ctx, "a"))

	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(rows), count)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	expectedKeys := slices.Sorted(maps.Keys(rows))
	assert.Equal(t, expectedKeys, keys)
}

func TestScoresWithBoard(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	board := highscore.NewBoard(Scores{s}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	key := highscore.Key(mines.Presets["beginner"])

	best, err := board.Best(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, highscore.NoScore, best)

	improved, err := board.Submit(ctx, key, 90)
	require.NoError(t, err)
	assert.True(t, improved)

	improved, err = board.Submit(ctx, key, 120)
	require.NoError(t, err)
	assert.False(t, improved)

	improved, err = board.Submit(ctx, key, 45)
	require.NoError(t, err)
	assert.True(t, improved)

	best, err = board.Best(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 45, best)

	_, err = board.Submit(ctx, key, -3)
	assert.Error(t, err)
}

func TestScoresConcurrentSubmit(t *testing.T) {
	s, teardown, err := setupTestStore()
	if err != nil {
		t.Fatal(err)
	}
	defer teardown()

	ctx := context.Background()
	board := highscore.NewBoard(Scores{s}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	key := highscore.Key(mines.Presets["beginner"])

	var wg sync.WaitGroup
	for seconds := 50; seconds >= 1; seconds-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := board.Submit(ctx, key, seconds)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	best, err := board.Best(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, best)
}
