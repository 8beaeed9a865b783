// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for the Waveshare 1.54" e-paper driver and
// the tools around it.
//
// The driver lives in waveshare1in54v2. termpreview renders the same images
// to a terminal, and cmd/epd1in54 ties them together.
package epaper
