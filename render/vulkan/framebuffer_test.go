package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/MalcolmParry/mwengine/render"
)

func TestBuildFramebuffersMatchesImages(t *testing.T) {
	c := qt.New(t)

	for _, extent := range []render.UInt2{{X: 800, Y: 600}, {X: 1920, Y: 1080}} {
		colors := []*Image{{size: extent}, {size: extent}, {size: extent}}

		framebuffers, err := buildFramebuffers(colors, func(color *Image) (*Framebuffer, error) {
			return &Framebuffer{size: color.GetResolution()}, nil
		})
		c.Assert(err, qt.IsNil)
		c.Assert(framebuffers, qt.HasLen, len(colors))
		for _, framebuffer := range framebuffers {
			c.Assert(framebuffer.GetSize(), qt.Equals, extent)
		}
	}
}

func TestBuildFramebuffersStopsOnFailure(t *testing.T) {
	c := qt.New(t)

	colors := []*Image{{}, {}, {}}
	calls := 0
	framebuffers, err := buildFramebuffers(colors, func(color *Image) (*Framebuffer, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("out of memory")
		}
		return &Framebuffer{}, nil
	})
	c.Assert(err, qt.ErrorMatches, "framebuffer 1: out of memory")
	c.Assert(framebuffers, qt.IsNil)
	c.Assert(calls, qt.Equals, 2)
}

func TestNewFramebufferNeedsRenderPass(t *testing.T) {
	c := qt.New(t)

	_, err := NewFramebuffer(&Instance{}, nil, &Image{}, nil)
	c.Assert(err, qt.ErrorIs, ErrAttachmentMismatch)
}
