package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecedenceMergeOrderIndependent(t *testing.T) {
	orders := [][]int{
		{0, 2, 5},
		{5, 2, 0},
		{2, 5, 0},
		{0, 5, 2},
		{5, 0, 2},
		{2, 0, 5},
	}

	for _, order := range orders {
		t.Run("", func(t *testing.T) {
			t.Setenv("LC_ALL", "C")
			ctx := context.Background()

			env := newTestEnvWithPositions(t, 6)
			paths := map[int]string{}
			for _, pos := range []int{0, 2, 5} {
				paths[pos] = env.write(t, pos, "shared.desktop", plainEntry)
			}

			for _, pos := range order {
				env.m.Observe(ctx, paths[pos], pos)
			}

			snap, ok := env.m.Snapshot("shared.desktop")
			require.True(t, ok)
			assert.Equal(t, 0, snap.Position, "scan order %v", order)
			assert.Equal(t, 2, snap.SystemPosition, "scan order %v", order)
		})
	}
}

func TestObserveLowerPriorityOnlyTracksShadow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userPath := env.write(t, 0, "app.desktop", plainEntry)
	sysPath := env.write(t, 2, "app.desktop", "[Desktop Entry]\nName=System Copy\nExec=other\n")

	env.m.Observe(ctx, userPath, 0)
	env.m.Observe(ctx, sysPath, 2)

	snap, _ := env.m.Snapshot("app.desktop")
	assert.Equal(t, 0, snap.Position)
	assert.Equal(t, 2, snap.SystemPosition)
	assert.Equal(t, "Music Player", snap.Name, "lower-priority content must not leak in")

	_, changed, _ := env.notifier.counts()
	assert.Zero(t, changed)
}

func TestObserveHigherPriorityReloads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sysPath := env.write(t, 2, "app.desktop", plainEntry)
	env.m.Observe(ctx, sysPath, 2)

	betterPath := env.write(t, 1, "app.desktop", "[Desktop Entry]\nName=Priority Copy\nExec=better\n")
	env.m.Observe(ctx, betterPath, 1)

	snap, _ := env.m.Snapshot("app.desktop")
	assert.Equal(t, 1, snap.Position)
	assert.Equal(t, 1, snap.SystemPosition)
	assert.Equal(t, "Priority Copy", snap.Name)

	_, changed, _ := env.notifier.counts()
	assert.Equal(t, 1, changed, "reload of a pre-existing entry signals changed")
}

func TestObserveExternalEditReloads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	path := env.write(t, 1, "app.desktop", plainEntry)
	env.m.Observe(ctx, path, 1)

	env.write(t, 1, "app.desktop", "[Desktop Entry]\nName=Edited Externally\nExec=player\n")
	env.m.Observe(ctx, path, 1)

	snap, _ := env.m.Snapshot("app.desktop")
	assert.Equal(t, "Edited Externally", snap.Name)

	_, changed, _ := env.notifier.counts()
	assert.Equal(t, 1, changed)
}

func TestSelfWriteSuppressedExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	path := env.write(t, 1, "app.desktop", plainEntry)
	env.m.Observe(ctx, path, 1)

	require.NoError(t, env.m.Update("app.desktop", "Jukebox", "Plays music", "player --daemon", 5))
	env.fire(t, "app.desktop")

	suppressedBefore := counterValue(t, "suppressed")
	userPath := env.userPath("app.desktop")

	// The watcher reports our own write: swallowed, no reload.
	env.m.Observe(ctx, userPath, 0)
	assert.Equal(t, suppressedBefore+1, counterValue(t, "suppressed"))

	snap, _ := env.m.Snapshot("app.desktop")
	assert.Equal(t, "Jukebox", snap.Name)

	// A second observation at the same path is a genuine external edit.
	env.write(t, 0, "app.desktop", "[Desktop Entry]\nName=Someone Else\nExec=player\n")
	_, changedBefore, _ := env.notifier.counts()

	env.m.Observe(ctx, userPath, 0)

	snap, _ = env.m.Snapshot("app.desktop")
	assert.Equal(t, "Someone Else", snap.Name)
	_, changedAfter, _ := env.notifier.counts()
	assert.Equal(t, changedBefore+1, changedAfter)
	assert.Equal(t, suppressedBefore+1, counterValue(t, "suppressed"))
}

func TestObserveIgnoredWhileSavePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	path := env.write(t, 1, "app.desktop", plainEntry)
	env.m.Observe(ctx, path, 1)

	require.NoError(t, env.m.Update("app.desktop", "Jukebox", "Plays music", "player --daemon", 5))

	// While a write is pending, a new system sighting only updates the shadow.
	otherPath := env.write(t, 2, "app.desktop", "[Desktop Entry]\nName=Noise\nExec=x\n")
	env.m.Observe(ctx, otherPath, 2)

	snap, _ := env.m.Snapshot("app.desktop")
	assert.Equal(t, "Jukebox", snap.Name)
	assert.Equal(t, 1, snap.SystemPosition, "min shadow must be kept")
}

func TestEligibilityFiltering(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{
			name:    "OnlyShowIn matching",
			content: "[Desktop Entry]\nExec=x\nOnlyShowIn=MATE;GNOME;\n",
			want:    true,
		},
		{
			name:    "OnlyShowIn not matching",
			content: "[Desktop Entry]\nExec=x\nOnlyShowIn=KDE;\n",
			want:    false,
		},
		{
			name:    "NotShowIn matching",
			content: "[Desktop Entry]\nExec=x\nNotShowIn=MATE;\n",
			want:    false,
		},
		{
			name:    "NotShowIn not matching",
			content: "[Desktop Entry]\nExec=x\nNotShowIn=KDE;\n",
			want:    true,
		},
		{
			name:    "both absent",
			content: "[Desktop Entry]\nExec=x\n",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LC_ALL", "C")
			env := newTestEnv(t)
			path := env.write(t, 1, "app.desktop", tt.content)

			env.m.Observe(context.Background(), path, 1)

			_, ok := env.m.Snapshot("app.desktop")
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestUnparseableRecordYieldsNoEntry(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, 1, "broken.desktop", "\x00not a keyfile")

	env.m.Observe(context.Background(), path, 1)

	_, ok := env.m.Snapshot("broken.desktop")
	assert.False(t, ok)
	added, _, _ := env.notifier.counts()
	assert.Zero(t, added)
}
