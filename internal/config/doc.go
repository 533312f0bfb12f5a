// Package config loads declarative model files.
//
// A model file is HCL. Each top-level "module" block describes one module
// tree; nested "module" blocks are its sub-modules, in order:
//
//	module "sequential" "mlp" {
//	  repeat = 2
//
//	  module "linear" "proj" {
//	    input_dims  = var.width
//	    output_dims = var.width
//	  }
//	  module "relu" "act" {}
//	}
//
// The first label is the module kind, the second its name. A "signature"
// attribute routes a sub-module inside a graph. Every other attribute is
// kept as an evaluated cty.Value and interpreted by the builder for that
// kind. Expressions may reference caller-supplied variables as var.<name>.
package config
