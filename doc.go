// Package halyard loads YAML documents with source provenance and a small
// directive vocabulary for file composition.
//
// Quick Start:
//
//	secrets := halyard.NewSecrets("/config")
//	loader := halyard.NewLoader(halyard.WithSecrets(secrets))
//
//	cfg, err := loader.LoadMapping("/config/configuration.yaml")
//
// Every mapping, sequence and string in the result remembers the file and
// line it was parsed from, without that metadata taking part in equality:
//
//	if prov, ok := halyard.ProvenanceOf(value); ok {
//	    fmt.Printf("defined at %s:%d\n", prov.File, prov.Line)
//	}
//
// Directives: !include, !include_dir_named, !include_dir_merge_named,
// !include_dir_list, !include_dir_merge_list, !env_var, !secret, !input.
//
// See example_test.go for detailed usage.
package halyard
