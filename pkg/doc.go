// Package pkg provides the core libraries for Ideconfy identicons.
//
// # Overview
//
// Ideconfy hashes text into a small mirrored pixel pattern and a color,
// renders it, and arranges identicons on a canvas without overlap. The pkg
// directory is organized into three areas:
//
//  1. Domain logic: [identicon], [placement], [canvas]
//  2. Output and orchestration: [render], [pipeline]
//  3. Infrastructure: [cache], [config], [server], [observability], [errors]
//
// # Architecture
//
// The typical data flow:
//
//	content string
//	     ↓
//	[identicon] package (SHA-256 digest, color, mirrored pattern)
//	     ↓
//	[render] package (SVG, or PNG/JPEG/BMP via a rasterizer)
//	     ↓
//	[pipeline] package (validation and caching around the two steps)
//
// Placement runs beside rendering:
//
//	drag gesture ([canvas].Commit)
//	     ↓
//	[canvas] state machine (threshold and capacity guards)
//	     ↓
//	[placement] ring search for a free spot
//
// # Quick Start
//
//	id, _ := identicon.Generate("hello", identicon.DefaultSize)
//	svg := render.SVG(id, render.CanvasScale)
//
//	cv, _ := canvas.New(nil)
//	it, _ := cv.Craft("hello")
//	out, _ := cv.Commit(ctx, it.ID, canvas.Gesture{DY: -150})
//	fmt.Println(out.Item.Position)
//
// # Error Handling
//
// Packages return errors built with [errors.New] and [errors.Wrap], each
// carrying a [errors.Code] such as INVALID_CONFIG or NOT_FOUND. The server
// maps codes to HTTP statuses and the CLI prints [errors.UserMessage].
package pkg
