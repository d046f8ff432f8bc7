package docstore

import (
	"testing"

	"chitchat/domain"

	"github.com/stretchr/testify/require"
)

func Test_Registry_Roster_Membership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	w1 := registry.addRosterWatcher("u1")
	w2 := registry.addRosterWatcher("u2")
	req.NotEqual(w1.id, w2.id)
	req.Len(registry.getRosterWatchers(), 2)

	registry.removeRosterWatcher(w1.id)
	watchers := registry.getRosterWatchers()
	req.Len(watchers, 1)
	req.Equal(w2.id, watchers[0].id)

	// Removing twice must not panic; the channel closes exactly once
	registry.removeRosterWatcher(w1.id)

	_, open := <-w1.out
	req.False(open)
}

func Test_Registry_Channel_Membership_Scoped(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	wa := registry.addChannelWatcher("u2u1")
	wb := registry.addChannelWatcher("u2u1")
	wc := registry.addChannelWatcher("u3u1")

	req.Len(registry.getChannelWatchers("u2u1"), 2)
	req.Len(registry.getChannelWatchers("u3u1"), 1)
	req.Empty(registry.getChannelWatchers("u9u8"))

	registry.removeChannelWatcher("u2u1", wa.id)
	registry.removeChannelWatcher("u2u1", wb.id)
	req.Empty(registry.getChannelWatchers("u2u1"))

	registry.removeChannelWatcher("u3u1", wc.id)
	req.Empty(registry.getChannelWatchers("u3u1"))
}

func Test_Watcher_Conflates_To_Latest(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	w := registry.addRosterWatcher("")

	// Nobody reads between pushes: only the freshest snapshot survives
	w.push([]domain.User{{ID: "u1"}}, 1)
	w.push([]domain.User{{ID: "u1"}, {ID: "u2"}}, 2)
	w.push([]domain.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}, 3)

	snapshot := <-w.out
	req.Len(snapshot, 3)

	select {
	case stale := <-w.out:
		req.Failf("unexpected snapshot", "got %v", stale)
	default:
	}
}

func Test_Watcher_Drops_Push_With_Older_Version(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	w := registry.addChannelWatcher("u2u1")

	// A fresher snapshot lands first, then a slower reader finishes
	// with an older one. The older push must be discarded, not applied.
	fresh := []domain.Message{{Text: "hello"}, {Text: "marker"}}
	stale := []domain.Message{{Text: "hello"}}
	w.push(fresh, 7)
	w.push(stale, 3)

	snapshot := <-w.out
	req.Len(snapshot, 2)
	req.Equal("marker", snapshot[1].Text)

	select {
	case late := <-w.out:
		req.Failf("unexpected snapshot", "got %v", late)
	default:
	}

	// Equal versions are accepted: same data recomputed is not a regression
	w.push(fresh, 7)
	req.Len(<-w.out, 2)
}

func Test_Push_After_Close_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	w := registry.addRosterWatcher("")
	registry.removeRosterWatcher(w.id)

	// Must not panic on the closed channel
	w.push([]domain.User{{ID: "u1"}}, 1)

	_, open := <-w.out
	req.False(open)
}
