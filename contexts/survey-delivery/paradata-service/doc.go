// Package paradataservice ingests response paradata from the delivery
// channels and scores each response against the quality rule set: completion
// speed, time of day, edit behavior, voice confidence and GPS plausibility.
//
// Records are immutable after ingest; verdicts are derived and can be
// recomputed when thresholds change. Scored responses are relayed to the
// delivery side through a transactional outbox.
package paradataservice
