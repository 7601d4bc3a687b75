package pipeline

import (
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/render"
)

// Render generates output artifacts in the requested formats. Options must
// already be validated.
func Render(id identicon.Identicon, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		f, err := render.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		data, err := render.Bytes(id, f, opts.Scale, opts.Width, opts.Height)
		if err != nil {
			return nil, err
		}
		artifacts[name] = data
	}
	return artifacts, nil
}
