package editbuffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name  string
	Price float64
}

func TestStage_ReplacesPreviousEdit(t *testing.T) {
	b := New[string, row]()

	b.Stage("p1", row{Name: "first"})
	b.Stage("p1", row{Name: "second"})

	got, ok := b.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "second", got.Name)
	assert.Equal(t, []string{"p1"}, b.Keys())
}

func TestCommit_AppliesAndClears(t *testing.T) {
	b := New[string, row]()
	b.Stage("p1", row{Name: "lamp", Price: 42})

	var applied row
	found, err := b.Commit("p1", func(r row) error {
		applied = r
		return nil
	})

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, row{Name: "lamp", Price: 42}, applied)
	_, ok := b.Get("p1")
	assert.False(t, ok)
}

func TestCommit_KeepsEditOnError(t *testing.T) {
	b := New[string, row]()
	b.Stage("p1", row{Name: "lamp"})
	errApply := errors.New("invalid row")

	found, err := b.Commit("p1", func(row) error { return errApply })

	assert.True(t, found)
	assert.ErrorIs(t, err, errApply)
	assert.Equal(t, []string{"p1"}, b.Keys())
}

func TestCommit_MissingKey(t *testing.T) {
	b := New[string, row]()

	found, err := b.Commit("nope", func(row) error {
		t.Fatal("apply must not be called")
		return nil
	})

	assert.False(t, found)
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	b := New[int, row]()
	b.Stage(1, row{})
	b.Stage(2, row{})

	assert.True(t, b.Cancel(1))
	assert.False(t, b.Cancel(1))
	assert.Equal(t, []int{2}, b.Keys())

	b.Reset()
	assert.Empty(t, b.Keys())
}
