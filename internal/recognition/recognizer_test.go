package recognition

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/tetris"
)

var frame = time.Second / 30

func testCatalog(t *testing.T, ids ...string) *pose.Catalog {
	t.Helper()
	templates := make([]*pose.Template, len(ids))
	for i, id := range ids {
		templates[i] = &pose.Template{
			ID:     id,
			Name:   id,
			Shape:  tetris.ParseShape([][]int{{1}}),
			Angles: pose.Angles{pose.RightArm: float64(i * 10)},
		}
	}
	c, err := pose.NewCatalog(templates)
	require.NoError(t, err)
	return c
}

// ranking builds a frame ranking with the given template first and the rest after it
// in catalog order.
func ranking(c *pose.Catalog, best int, score float64) []pose.Match {
	out := []pose.Match{{Template: c.At(best), Index: best, Score: score}}
	for i := 0; i < c.Len(); i++ {
		if i != best {
			out = append(out, pose.Match{Template: c.At(i), Index: i, Score: score / 2})
		}
	}
	return out
}

func seeing(c *pose.Catalog, best int, score, centerX float64) Observation {
	return Observation{HasPose: true, Ranking: ranking(c, best, score), CenterX: centerX}
}

func ids(ts []*pose.Template) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func newRecognizer(c *pose.Catalog, now time.Time) *Recognizer {
	return New(DefaultConfig(), c, rand.New(rand.NewPCG(1, 2)), now)
}

func TestZone(t *testing.T) {
	cases := []struct {
		x     float64
		count int
		want  int
	}{
		{0, 3, 0},
		{426, 3, 0},
		{427, 3, 1},
		{853, 3, 1},
		{854, 3, 2},
		{1279, 3, 2},
		{1280, 3, 2},
		{-50, 3, 0},
		{5000, 3, 2},
		{640, 1, 0},
		{640, 2, 1},
		{640, 0, -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Zone(tc.x, 1280, tc.count), "x=%v count=%d", tc.x, tc.count)
	}
	assert.Equal(t, -1, Zone(10, 0, 3))
}

func TestAccumulator(t *testing.T) {
	a := NewAccumulator(5)

	for _, i := range []int{3, 1, 3, 4, 1, 0, -1, 9} {
		a.Add(i)
	}

	assert.Equal(t, 2, a.Count(3))
	assert.Equal(t, 2, a.Count(1))
	assert.Equal(t, 0, a.Count(2))
	assert.Equal(t, 6, a.Total())
	assert.Equal(t, []int{1, 3, 0}, a.Top(3), "ties keep catalog order")
	assert.Equal(t, []int{1, 3, 0, 4}, a.Top(10))

	a.Reset()
	assert.Empty(t, a.Top(3))
	assert.Equal(t, 0, a.Total())
}

func TestRecognizer_WindowTerminatesWithoutDetections(t *testing.T) {
	c := testCatalog(t, "a", "b", "c")
	start := time.Unix(1000, 0)
	r := newRecognizer(c, start)

	now := start
	restarted := false
	for now.Sub(start) < 10*time.Second {
		now = now.Add(frame)
		res := r.Step(now, Observation{})
		assert.Equal(t, Recognizing, res.Phase)
		if res.Restarted {
			restarted = true
			assert.GreaterOrEqual(t, now.Sub(start), DefaultRecognitionWindow)
			break
		}
	}

	require.True(t, restarted, "window must end even when nothing was detected")
	res := r.Step(now.Add(frame), Observation{})
	assert.Equal(t, frame, res.Elapsed, "a fresh window starts at the restart")
}

func TestRecognizer_CandidatesByCount(t *testing.T) {
	c := testCatalog(t, "a", "b", "c", "d", "e")
	start := time.Unix(1000, 0)
	r := newRecognizer(c, start)

	// b seen most, d second, a once; e once but below threshold.
	script := []Observation{
		seeing(c, 1, 0.9, 0), seeing(c, 1, 0.9, 0), seeing(c, 1, 0.9, 0),
		seeing(c, 3, 0.8, 0), seeing(c, 3, 0.8, 0),
		seeing(c, 0, 1.0, 0),
		seeing(c, 4, 0.7, 0),
	}
	now := start
	for _, obs := range script {
		now = now.Add(frame)
		res := r.Step(now, obs)
		assert.Equal(t, Recognizing, res.Phase)
		assert.Len(t, res.Live, 3)
	}

	res := r.Step(start.Add(DefaultRecognitionWindow), Observation{})

	assert.True(t, res.Transitioned)
	assert.Equal(t, Selecting, res.Phase)
	assert.Equal(t, []string{"b", "d", "a"}, ids(res.Candidates))
	assert.Equal(t, -1, res.Zone)
}

func TestRecognizer_BackfillFromLiveRanking(t *testing.T) {
	c := testCatalog(t, "a", "b", "c", "d")
	start := time.Unix(1000, 0)
	r := newRecognizer(c, start)

	// Only c clears the threshold; the last live top-3 is [d, a, b].
	r.Step(start.Add(frame), seeing(c, 2, 0.9, 0))
	r.Step(start.Add(2*frame), seeing(c, 3, 0.5, 0))
	r.Step(start.Add(3*frame), Observation{})

	res := r.Step(start.Add(DefaultRecognitionWindow), Observation{})

	require.Equal(t, Selecting, res.Phase)
	assert.Equal(t, []string{"c", "d", "a"}, ids(res.Candidates))
}

func TestRecognizer_BackfillSkipsDuplicates(t *testing.T) {
	c := testCatalog(t, "a", "b", "c", "d")
	start := time.Unix(1000, 0)
	r := newRecognizer(c, start)

	// Live top-3 is [a, b, c]; a is already a counted candidate.
	r.Step(start.Add(frame), seeing(c, 0, 0.95, 0))

	res := r.Step(start.Add(DefaultRecognitionWindow), Observation{})

	assert.Equal(t, []string{"a", "b", "c"}, ids(res.Candidates))
}

func TestRecognizer_FewerCandidatesThanZones(t *testing.T) {
	c := testCatalog(t, "a", "b")
	start := time.Unix(1000, 0)
	r := newRecognizer(c, start)

	r.Step(start.Add(frame), seeing(c, 1, 0.9, 0))
	res := r.Step(start.Add(DefaultRecognitionWindow), Observation{})

	require.Equal(t, []string{"b", "a"}, ids(res.Candidates))

	// Two candidates means two zones: the right half picks a.
	res = r.Step(start.Add(DefaultRecognitionWindow+frame), Observation{HasPose: true, CenterX: 700})
	assert.Equal(t, 1, res.Zone)
}

func selecting(t *testing.T, c *pose.Catalog, start time.Time) (*Recognizer, time.Time) {
	t.Helper()
	r := newRecognizer(c, start)
	for i, idx := range []int{0, 0, 0, 1, 1, 2} {
		r.Step(start.Add(time.Duration(i+1)*frame), seeing(c, idx, 0.9, 0))
	}
	entered := start.Add(DefaultRecognitionWindow)
	res := r.Step(entered, Observation{})
	require.Equal(t, Selecting, res.Phase)
	require.Equal(t, []string{"a", "b", "c"}, ids(res.Candidates))
	return r, entered
}

func TestRecognizer_SelectByZone(t *testing.T) {
	c := testCatalog(t, "a", "b", "c")
	r, entered := selecting(t, c, time.Unix(1000, 0))

	res := r.Step(entered.Add(time.Second), Observation{HasPose: true, CenterX: 100})
	assert.Equal(t, 0, res.Zone)
	assert.Equal(t, 2*time.Second, res.Remaining)

	res = r.Step(entered.Add(2*time.Second), Observation{HasPose: true, CenterX: 1200})
	assert.Equal(t, 2, res.Zone)
	assert.Nil(t, res.Chosen)

	res = r.Step(entered.Add(DefaultSelectionWindow), Observation{HasPose: true, CenterX: 640})

	assert.True(t, res.Transitioned)
	assert.Equal(t, Confirmed, res.Phase)
	require.NotNil(t, res.Chosen)
	assert.Equal(t, "b", res.Chosen.ID)
	assert.False(t, res.RandomPick)
}

func TestRecognizer_RandomPickWithoutZone(t *testing.T) {
	c := testCatalog(t, "a", "b", "c")
	r, entered := selecting(t, c, time.Unix(1000, 0))

	res := r.Step(entered.Add(time.Second), Observation{HasPose: true, CenterX: 100})
	assert.Equal(t, 0, res.Zone)

	res = r.Step(entered.Add(DefaultSelectionWindow), Observation{})

	assert.Equal(t, Confirmed, res.Phase)
	assert.Equal(t, -1, res.Zone)
	require.NotNil(t, res.Chosen)
	assert.True(t, res.RandomPick)
	assert.Contains(t, []string{"a", "b", "c"}, res.Chosen.ID)
}

func TestRecognizer_RandomPickIsSeeded(t *testing.T) {
	c := testCatalog(t, "a", "b", "c")
	start := time.Unix(1000, 0)

	pick := func() string {
		r, entered := selecting(t, c, start)
		return r.Step(entered.Add(DefaultSelectionWindow), Observation{}).Chosen.ID
	}

	assert.Equal(t, pick(), pick())
}

func TestRecognizer_ConfirmedIsInertUntilReset(t *testing.T) {
	c := testCatalog(t, "a", "b", "c")
	r, entered := selecting(t, c, time.Unix(1000, 0))

	confirmedAt := entered.Add(DefaultSelectionWindow)
	r.Step(confirmedAt, Observation{HasPose: true, CenterX: 0})

	res := r.Step(confirmedAt.Add(time.Minute), seeing(c, 2, 1.0, 1200))
	assert.Equal(t, Confirmed, res.Phase)
	assert.False(t, res.Transitioned)
	assert.Equal(t, "a", res.Chosen.ID)

	r.Reset(confirmedAt.Add(time.Minute))
	res = r.Step(confirmedAt.Add(time.Minute+frame), Observation{})
	assert.Equal(t, Recognizing, res.Phase)
	assert.Empty(t, res.Candidates)
	assert.Nil(t, res.Chosen)
}

func TestRecognizer_Shift(t *testing.T) {
	c := testCatalog(t, "a")
	start := time.Unix(1000, 0)
	r := newRecognizer(c, start)

	r.Shift(10 * time.Second)

	res := r.Step(start.Add(DefaultRecognitionWindow), Observation{})
	assert.False(t, res.Restarted, "a shifted window has not expired yet")
	assert.Equal(t, Recognizing, res.Phase)
}
