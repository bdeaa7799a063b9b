package skeleton

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureEditor(t *testing.T) Editor {
	t.Helper()
	e := NewEditor()
	require.NoError(t, e.Replace(fixture()))
	return e
}

func TestEditorReparentCommits(t *testing.T) {
	e := newFixtureEditor(t)
	var seen [][]Joint
	unsubscribe := e.Subscribe(func(joints []Joint) { seen = append(seen, joints) })

	require.NoError(t, e.Reparent("leaf", "other"))
	leaf, ok := e.Joint("leaf")
	require.True(t, ok)
	assert.Equal(t, "other", leaf.ParentID)
	require.Len(t, seen, 1)
	assert.Equal(t, e.Joints(), seen[0])

	unsubscribe()
	require.NoError(t, e.SetPosition("leaf", mgl32.Vec3{3, 3, 3}))
	assert.Len(t, seen, 1)
}

func TestEditorRejectedReparentLeavesSnapshot(t *testing.T) {
	e := newFixtureEditor(t)
	before := e.Joints()
	notified := false
	e.Subscribe(func([]Joint) { notified = true })

	err := e.Reparent("root", "leaf")
	assert.True(t, errors.Is(err, ErrCycleDetected))
	assert.Equal(t, before, e.Joints())
	assert.False(t, notified)

	assert.True(t, errors.Is(e.SetPosition("ghost", mgl32.Vec3{}), ErrNotFound))
}

func TestEditorJointsIsACopy(t *testing.T) {
	e := newFixtureEditor(t)
	joints := e.Joints()
	joints[0].Name = "changed"

	root, _ := e.Joint("root")
	assert.Equal(t, "Root", root.Name)
}

func TestEditorReplaceValidates(t *testing.T) {
	e := newFixtureEditor(t)
	err := e.Replace([]Joint{NewJoint("a", "", "ghost", mgl32.Vec3{})})
	assert.True(t, errors.Is(err, ErrInvalidHierarchy))
	assert.Equal(t, 4, e.Len())

	require.NoError(t, e.Replace(nil))
	assert.Zero(t, e.Len())
	assert.NotNil(t, e.Joints())
}

func TestEditorQueries(t *testing.T) {
	e := newFixtureEditor(t)

	depth, err := e.Depth("leaf")
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	desc, err := e.DescendantsOf("mid")
	require.NoError(t, err)
	assert.Contains(t, desc, "leaf")

	world, err := e.WorldPosition("leaf")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, world)

	p, err := e.Placement("other")
	require.NoError(t, err)
	assert.Equal(t, Placement{ParentID: "root", Position: mgl32.Vec3{0, 0, 2}, Index: 3}, p)
}

func TestEditorConcurrentReparentsStayAcyclic(t *testing.T) {
	e := newFixtureEditor(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = e.Reparent("mid", "other")
			_ = e.Reparent("mid", "root")
		}()
		go func() {
			defer wg.Done()
			_ = e.Reparent("other", "leaf")
			_ = e.Reparent("other", "root")
			_ = e.Joints()
		}()
	}
	wg.Wait()

	require.NoError(t, Validate(e.Joints()))
	assert.Equal(t, 4, e.Len())
}

func TestSubscriberCannotMutateSnapshot(t *testing.T) {
	e := newFixtureEditor(t)
	e.Subscribe(func(joints []Joint) {
		for i := range joints {
			joints[i].ParentID = ""
			joints[i].Position = mgl32.Vec3{9, 9, 9}
		}
	})

	require.NoError(t, e.SetPosition("mid", mgl32.Vec3{2, 0, 0}))
	mid, _ := e.Joint("mid")
	assert.Equal(t, "root", mid.ParentID)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, mid.Position)
}

func TestNotificationsFollowCommitOrder(t *testing.T) {
	e := newFixtureEditor(t)
	var (
		mu   sync.Mutex
		last mgl32.Vec3
	)
	e.Subscribe(func(joints []Joint) {
		mu.Lock()
		defer mu.Unlock()
		last = joints[IndexOf(joints, "other")].Position
	})

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.SetPosition("other", mgl32.Vec3{float32(i), 0, 0}))
		}()
	}
	wg.Wait()

	other, _ := e.Joint("other")
	assert.Equal(t, other.Position, last, "the last notification carries the final commit")
}
