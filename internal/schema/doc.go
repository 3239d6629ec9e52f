// Package schema loads plugin declarations written in CUE and turns them
// into published effect descriptors.
//
// A schema directory holds one CUE package. Each entry under `plugin` is
// keyed by the plugin identifier:
//
//	plugin: "com.example.Blur": {
//		label: "Blur"
//		group: "Filter"
//		version: [1, 0]
//		clips: {
//			Source: components: ["RGBA", "Alpha"]
//			Output: {}
//		}
//		params: radius: {
//			type:    "double"
//			default: 2
//			min:     0
//			max:     100
//		}
//	}
//
// Parameter types are integer, double, boolean, string, choice, rgb, rgba,
// double2d and double3d. Loading decodes every plugin, validates it with
// collect-all semantics (codes E201-E209) and only then builds descriptors,
// so a schema with errors never yields half-built plugins.
package schema
