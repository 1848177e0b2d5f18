package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danijoha94/vintertour/internal/db"
	"github.com/danijoha94/vintertour/internal/models"
)

var cmpOpts = cmp.AllowUnexported(models.Assignment{})

func newMatch(title string) models.Match {
	holes := make([]models.Hole, 18)
	for i := range holes {
		holes[i] = models.Hole{Number: i + 1}
	}
	return models.Match{
		Title: title,
		Team1: models.Team{
			Title:   "Alpha",
			Player1: models.Player{ID: 1, Name: "Ola"},
			Player2: models.Player{ID: 2, Name: "Kari"},
		},
		Team2: models.Team{
			Title:   "Beta",
			Player1: models.Player{ID: 3, Name: "Per"},
			Player2: models.Player{ID: 4, Name: "Pål"},
		},
		Holes: holes,
	}
}

func newStore(t *testing.T) (*MatchStore, *db.Memory) {
	t.Helper()
	backend := db.NewMemory()
	return New(backend, nil), backend
}

func TestList_EmptyStore(t *testing.T) {
	s, _ := newStore(t)

	matches, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestCreate_AssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	for want := 1; want <= 5; want++ {
		m, err := s.Create(ctx, newMatch(fmt.Sprintf("Match %d", want)))
		require.NoError(t, err)
		assert.Equal(t, want, m.ID)
	}
}

func TestCreate_IgnoresSuppliedID(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	in := newMatch("A")
	in.ID = 42
	m, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ID)
}

func TestCreate_UsesMaxIDAfterDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, newMatch("x"))
		require.NoError(t, err)
	}
	ok, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	m, err := s.Create(ctx, newMatch("y"))
	require.NoError(t, err)
	assert.Equal(t, 4, m.ID)
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	created, err := s.Create(ctx, newMatch("Lofoten links – 17.10.26"))
	require.NoError(t, err)

	got, ok, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(created, got, cmpOpts); diff != "" {
		t.Errorf("Get mismatch (-created +got):\n%s", diff)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newStore(t)

	_, ok, err := s.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("holes only leaves other fields", func(t *testing.T) {
		s, _ := newStore(t)
		_, err := s.Create(ctx, newMatch("A"))
		require.NoError(t, err)
		before, err := s.Create(ctx, newMatch("B"))
		require.NoError(t, err)

		holes := append([]models.Hole(nil), before.Holes...)
		holes[4].Team1Player = models.Assigned(2)

		updated, ok, err := s.Update(ctx, 2, models.MatchPatch{Holes: holes})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2, updated.ID)

		got, _, err := s.Get(ctx, 2)
		require.NoError(t, err)
		if diff := cmp.Diff(holes, got.Holes, cmpOpts); diff != "" {
			t.Errorf("holes mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, before.Title, got.Title)
		assert.Equal(t, before.Team1, got.Team1)
		assert.Equal(t, before.Team2, got.Team2)
	})

	t.Run("title and teams leave holes", func(t *testing.T) {
		s, _ := newStore(t)
		before, err := s.Create(ctx, newMatch("A"))
		require.NoError(t, err)

		title := "Renamed"
		team1 := before.Team1
		team1.Score = 3
		got, ok, err := s.Update(ctx, before.ID, models.MatchPatch{Title: &title, Team1: &team1})
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, 3, got.Team1.Score)
		assert.Equal(t, before.Team2, got.Team2)
		if diff := cmp.Diff(before.Holes, got.Holes, cmpOpts); diff != "" {
			t.Errorf("holes changed:\n%s", diff)
		}
	})

	t.Run("unknown id writes nothing", func(t *testing.T) {
		s, backend := newStore(t)
		_, err := s.Create(ctx, newMatch("A"))
		require.NoError(t, err)
		blob, _, _ := backend.Get(ctx, Key)

		title := "nope"
		_, ok, err := s.Update(ctx, 99, models.MatchPatch{Title: &title})
		require.NoError(t, err)
		assert.False(t, ok)

		after, _, _ := backend.Get(ctx, Key)
		assert.Equal(t, string(blob), string(after))
	})
}

func TestUpdate_EmptyHolesStayArray(t *testing.T) {
	s, backend := newStore(t)
	ctx := context.Background()
	created, err := s.Create(ctx, newMatch("Lofoten links – 09.01.26"))
	require.NoError(t, err)

	got, ok, err := s.Update(ctx, created.ID, models.MatchPatch{Holes: []models.Hole{}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, got.Holes)
	assert.Empty(t, got.Holes)

	data, found, err := backend.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(data), `"holes":[]`)
	assert.NotContains(t, string(data), `"holes":null`)
}

func TestModify(t *testing.T) {
	ctx := context.Background()

	t.Run("patch is built from the stored match", func(t *testing.T) {
		s, _ := newStore(t)
		created, err := s.Create(ctx, newMatch("Lofoten links – 09.01.26"))
		require.NoError(t, err)

		got, ok, err := s.Modify(ctx, created.ID, func(m models.Match) (models.MatchPatch, error) {
			team1 := m.Team1
			team1.Score = 3
			return models.MatchPatch{Team1: &team1}, nil
		})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 3, got.Team1.Score)
		assert.Equal(t, "Alpha", got.Team1.Title)

		stored, _, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.Team1.Score)
	})

	t.Run("error from fn writes nothing", func(t *testing.T) {
		s, backend := newStore(t)
		created, err := s.Create(ctx, newMatch("Lofoten links – 09.01.26"))
		require.NoError(t, err)
		before, _, err := backend.Get(ctx, Key)
		require.NoError(t, err)

		rejected := errors.New("rejected")
		_, ok, err := s.Modify(ctx, created.ID, func(models.Match) (models.MatchPatch, error) {
			title := "changed"
			return models.MatchPatch{Title: &title}, rejected
		})
		assert.True(t, ok)
		assert.ErrorIs(t, err, rejected)

		after, _, err := backend.Get(ctx, Key)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("unknown id", func(t *testing.T) {
		s, _ := newStore(t)
		called := false
		_, ok, err := s.Modify(ctx, 7, func(models.Match) (models.MatchPatch, error) {
			called = true
			return models.MatchPatch{}, nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, called)
	})

	t.Run("concurrent edits all land", func(t *testing.T) {
		s, _ := newStore(t)
		created, err := s.Create(ctx, newMatch("Lofoten links – 09.01.26"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 18; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, err := s.Modify(ctx, created.ID, func(m models.Match) (models.MatchPatch, error) {
					m.Holes[i].Team1Player = models.Assigned(1 + i%2)
					return models.MatchPatch{Holes: m.Holes}, nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, _, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		for i, h := range got.Holes {
			id, ok := h.Team1Player.PlayerID()
			assert.True(t, ok, "hole %d", h.Number)
			assert.Equal(t, 1+i%2, id, "hole %d", h.Number)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	a, err := s.Create(ctx, newMatch("A"))
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)
	b, err := s.Create(ctx, newMatch("B"))
	require.NoError(t, err)
	assert.Equal(t, 2, b.ID)

	ok, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	matches, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].ID)

	ok, err = s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "second delete should report nothing removed")

	matches, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestList_PreservesStorageOrder(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	require.NoError(t, backend.Put(ctx, Key, []byte(`[{"id":5,"title":"e"},{"id":2,"title":"b"}]`)))

	matches, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 5, matches[0].ID)
	assert.Equal(t, 2, matches[1].ID)

	m, err := s.Create(ctx, newMatch("f"))
	require.NoError(t, err)
	assert.Equal(t, 6, m.ID)
}

func TestLoad_LegacyBlob(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	blob := `[{"id":1,"title":"Lofoten links â€“ 01.02.25",
		"team1":{"title":"A","player1":{"id":1,"name":"a"},"player2":{"id":2,"name":"b"}},
		"team2":{"title":"B","player1":{"id":3,"name":"c"},"player2":{"id":4,"name":"d"},"score":null},
		"holes":[{"number":1,"team1_player":2,"team2_player":0}]}]`
	require.NoError(t, backend.Put(ctx, Key, []byte(blob)))

	m, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, m.Team1.Score)
	assert.Equal(t, 0, m.Team2.Score)

	id, set := m.Holes[0].Team1Player.PlayerID()
	assert.True(t, set)
	assert.Equal(t, 2, id)
	assert.False(t, m.Holes[0].Team2Player.IsSet())
}

func TestLoad_Corrupt(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	require.NoError(t, backend.Put(ctx, Key, []byte(`{not json`)))

	_, err := s.List(ctx)
	assert.True(t, errors.Is(err, ErrCorrupt))

	_, err = s.Create(ctx, newMatch("A"))
	assert.True(t, errors.Is(err, ErrCorrupt))
}

type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (f failingBackend) Put(context.Context, string, []byte) error         { return f.err }

func TestCreate_PutFailure(t *testing.T) {
	boom := errors.New("disk full")
	s := New(failingBackend{err: boom}, nil)

	_, err := s.Create(context.Background(), newMatch("A"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vintertour.db")

	backend, err := db.Open(path)
	require.NoError(t, err)
	s := New(backend, nil)
	created, err := s.Create(ctx, newMatch("A"))
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	reopened, err := db.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := New(reopened, nil).Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(created, got, cmpOpts); diff != "" {
		t.Errorf("mismatch after reopen:\n%s", diff)
	}
}
