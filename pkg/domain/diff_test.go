package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	start := StateID("start")
	next := StateID("next")

	tests := []struct {
		name     string
		old      *Session
		new      *Session
		wantDiff *SessionDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &Session{
				ID:      "sess-1",
				Current: start,
				Vars:    Vars{"device": "playstation"},
				History: []StateID{start},
			},
			wantDiff: &SessionDiff{
				SessionID: "sess-1",
				Current:   &start,
				Vars:      map[string]any{"device": "playstation"},
				Visited:   []StateID{start},
			},
		},
		{
			name: "No Changes",
			old: &Session{
				ID:      "sess-1",
				Current: start,
				Vars:    Vars{"device": "playstation"},
				History: []StateID{start},
			},
			new: &Session{
				ID:      "sess-1",
				Current: start,
				Vars:    Vars{"device": "playstation"},
				History: []StateID{start},
			},
			wantDiff: nil,
		},
		{
			name: "Vars Added & Modified",
			old: &Session{
				ID:      "sess-1",
				Current: start,
				Vars:    Vars{"device": "xbox", "genre": "Racing"},
			},
			new: &Session{
				ID:      "sess-1",
				Current: start,
				Vars:    Vars{"device": "xbox", "genre": "Shooter", "fav_game": "halo"},
			},
			wantDiff: &SessionDiff{
				SessionID: "sess-1",
				Vars:      map[string]any{"genre": "Shooter", "fav_game": "halo"},
			},
		},
		{
			name: "History Append",
			old: &Session{
				ID:      "sess-1",
				Current: start,
				History: []StateID{start},
			},
			new: &Session{
				ID:      "sess-1",
				Current: next,
				History: []StateID{start, next},
			},
			wantDiff: &SessionDiff{
				SessionID: "sess-1",
				Current:   &next,
				Visited:   []StateID{next},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantDiff.SessionID, got.SessionID)
			assert.Equal(t, tt.wantDiff.Vars, got.Vars)
			assert.Equal(t, tt.wantDiff.Visited, got.Visited)
			assert.Equal(t, tt.wantDiff.Current, got.Current)
		})
	}
}

func TestDiff_EndedAndDeletion(t *testing.T) {
	old := &Session{ID: "s", Vars: Vars{"a": "1", "b": "2"}}
	new := &Session{ID: "s", Vars: Vars{"a": "1"}, Ended: true}

	diff := Diff(old, new)
	require.NotNil(t, diff)
	require.NotNil(t, diff.Ended)
	assert.True(t, *diff.Ended)

	bytes, err := json.Marshal(diff)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(bytes), `"b":null`), "deletions serialize as null, got %s", bytes)
}
