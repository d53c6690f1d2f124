// Package logger records shell events as newline delimited JSON so sessions
// can be replayed into reports after the fact.
//
// Each line is a google.protobuf.Struct encoded with protojson. Readers use
// ReadJSONLinesLog which decodes lines back into Entry values.
package logger
