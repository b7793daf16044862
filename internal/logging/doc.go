// Package logging provides the single structured logger shared by every
// ambient component in this repo that logs (processor, recovery, the
// Kafka sink and source, cmd/engine; walcore itself does not log):
// a thin wrapper over zap that attaches a handful of named fields instead
// of formatting free-form strings.
package logging
