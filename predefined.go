// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

// PredefinedUniform is a uniform whose value the submit walker computes from
// view and draw state. Shaders declare them by name.
type PredefinedUniform uint8

const (
	PredefinedViewRect PredefinedUniform = iota
	PredefinedViewTexel
	PredefinedView
	PredefinedViewProj
	PredefinedViewProjX
	PredefinedModel
	PredefinedModelView
	PredefinedModelViewProj
	PredefinedModelViewProjX
	PredefinedAlphaRef
	predefinedCount
)

var predefinedNames = [predefinedCount]string{
	"u_viewRect",
	"u_viewTexel",
	"u_view",
	"u_viewProj",
	"u_viewProjX",
	"u_model",
	"u_modelView",
	"u_modelViewProj",
	"u_modelViewProjX",
	"u_alphaRef",
}

// String returns the shader-side name.
func (p PredefinedUniform) String() string {
	if p < predefinedCount {
		return predefinedNames[p]
	}
	return "Unknown"
}

// PredefinedUniformByName returns the predefined uniform called name.
func PredefinedUniformByName(name string) (PredefinedUniform, bool) {
	for i, n := range predefinedNames {
		if n == name {
			return PredefinedUniform(i), true
		}
	}
	return predefinedCount, false
}

// predefinedBinding places a predefined uniform at a shader location.
type predefinedBinding struct {
	which PredefinedUniform
	loc   uint16
	count uint16
}
