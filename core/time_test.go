// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"
	"time"

	"github.com/devblok/koru/core"
	qt "github.com/frankban/quicktest"
)

func TestTimeTickers(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{
		FramesPerSecond: 100,
		EventPollDelay:  1,
	})
	defer tm.Stop()

	c.Assert(tm.Fps(), qt.Equals, 100)
	c.Assert(tm.FrameInterval(), qt.Equals, 10*time.Millisecond)

	select {
	case <-tm.FpsTicker().C:
	case <-time.After(time.Second):
		c.Fatal("fps ticker did not tick")
	}
	select {
	case <-tm.EventTicker().C:
	case <-time.After(time.Second):
		c.Fatal("event ticker did not tick")
	}
}

func TestTimeUnlimited(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{})
	defer tm.Stop()
	c.Assert(tm.FrameInterval(), qt.Equals, time.Nanosecond)
}
