// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package waveshare1in54v2 controls the Waveshare 1.54 inch v2 e-paper
// display (SSD1681 controller, 200x200 pixels, black and white).
//
// The driver keeps a packed 1-bit framebuffer and supports two refresh
// regimes: full refresh, which drives every pixel through the complete
// waveform, and partial refresh, which only toggles the pixels that changed
// relative to the image held in the controller's second RAM bank.
//
// A typical session looks like this:
//
//	InitFull
//	Clear, SetPixel/Draw ...
//	DisplayFullWithBaseImage   (once, primes the partial update reference)
//	InitPartial
//	Clear, SetPixel/Draw ...
//	DisplayPartial             (repeat)
//
// The order is enforced; calling DisplayPartial before InitPartial, or
// InitPartial before a base image was written, fails with ErrInvalidState or
// ErrNoBaseImage instead of producing a ghosted image.
//
// # Datasheet
//
// https://www.waveshare.com/w/upload/e/e5/1.54inch_e-paper_V2_Datasheet.pdf
//
// # Product page
//
// https://www.waveshare.com/wiki/1.54inch_e-Paper_Module_Manual
package waveshare1in54v2
