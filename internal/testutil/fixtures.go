// Package testutil provides shared package manifests for tests.
package testutil

import "github.com/roach88/stubgen/internal/ir"

// DemoNamespace is the namespace token used with the demo fixtures.
const DemoNamespace = "NS"

// DemoManifest returns the single-file package used throughout the docs:
// package id "demo:pkg", main module "index.js", six declarations covering
// every rendering branch.
//
// Assembled with DemoNamespace it produces DemoIndexStub.
func DemoManifest() ir.PackageManifest {
	return ir.PackageManifest{
		PackageIdentity: ir.PackageIdentity{
			Name:           "demo:pkg",
			PackageID:      "demo:pkg",
			MainModulePath: "index.js",
		},
		Files: []ir.FileExports{
			{
				Path: "index.js",
				Exports: []ir.ExportData{
					{Type: ir.ExportNamed, Name: "Foo", ID: "1"},
					{Type: ir.ExportDefault, ID: "2"},
					{Type: ir.ExportReExport, Name: ir.Wildcard, From: "./sub", ID: "3"},
					{Type: ir.ExportReExport, Name: "Baz", As: "Qux", From: "./sub2", ID: "4"},
					{Type: ir.ExportReExport, Name: ir.Wildcard, As: "NS2", From: "./sub3", ID: "5"},
					{Type: ir.ExportReExport, Name: "Thing", From: "other:package", ID: "6"},
				},
			},
		},
	}
}

// DemoIndexStub is the assembled index.js stub of DemoManifest.
const DemoIndexStub = `export * from 'demo:pkg/sub';
export const Qux = NS.Qux;
export const NS2 = NS.NS2;
export { Thing } from 'other:package';

export const Foo = NS.Foo;
export default NS.default ?? NS;
`

// MultiNamespace is the namespace token used with MultiFileManifest.
const MultiNamespace = "MeteorStub"

// MultiFileManifest returns a three-file package with global bindings,
// parent-directory re-exports and a file that emits nothing.
func MultiFileManifest() ir.PackageManifest {
	return ir.PackageManifest{
		PackageIdentity: ir.PackageIdentity{
			Name:           "demo:multi",
			PackageID:      "demo:multi",
			MainModulePath: "index.js",
		},
		Files: []ir.FileExports{
			{
				Path: "index.js",
				Exports: []ir.ExportData{
					{Type: ir.ExportGlobalBinding, Name: "Meteor", ID: "m1"},
					{Type: ir.ExportNamed, Name: "VERSION", ID: "m2"},
					{Type: ir.ExportReExport, Name: ir.Wildcard, From: "./lib/util.js", ID: "m3"},
					{Type: ir.ExportReExport, Name: "Widget", From: "./lib/widget.js", ID: "m4"},
					{Type: ir.ExportReExport, Name: "Tracker", From: "meteor/tracker", ID: "m5"},
					{Type: ir.ExportDefault, ID: "m6"},
				},
			},
			{
				Path: "lib/util.js",
				Exports: []ir.ExportData{
					{Type: ir.ExportNamed, Name: "formatDate", ID: "m7"},
					{Type: ir.ExportReExport, Name: ir.Wildcard, As: "Helpers", From: "../helpers/index.js", ID: "m8"},
					{Type: ir.ExportNamed, Name: "default", ID: "m9"},
				},
			},
			{
				Path: "lib/globals.js",
				Exports: []ir.ExportData{
					{Type: ir.ExportGlobalBinding, Name: "Package", ID: "m10"},
				},
			},
		},
	}
}

// MultiIndexStub is the assembled index.js stub of MultiFileManifest.
const MultiIndexStub = `export * from 'demo:multi/lib/util.js';
export const Widget = MeteorStub.Widget;
export { Tracker } from 'meteor/tracker';

export const VERSION = MeteorStub.VERSION;
export default MeteorStub.default ?? MeteorStub;
`

// MultiUtilStub is the assembled lib/util.js stub of MultiFileManifest.
const MultiUtilStub = `export { * as Helpers } from 'demo:multi/helpers/index.js';

export const formatDate = MeteorStub.formatDate;
export default MeteorStub.default ?? MeteorStub;
`

// BrokenManifest returns a package whose main module holds a record of an
// unknown type, which fails serialization.
func BrokenManifest() ir.PackageManifest {
	return ir.PackageManifest{
		PackageIdentity: ir.PackageIdentity{
			Name:           "demo:broken",
			PackageID:      "demo:broken",
			MainModulePath: "index.js",
		},
		Files: []ir.FileExports{
			{
				Path: "index.js",
				Exports: []ir.ExportData{
					{Type: ir.ExportNamed, Name: "Fine", ID: "b1"},
					{Type: ir.ExportType("export-namespace"), Name: "Odd", ID: "b2"},
				},
			},
		},
	}
}
