// Package deliveryservice implements multi-channel survey invitation
// delivery: per-campaign schedules, dispatch with retry and fallback across
// chat, IVR, web and voice-avatar transports, and the live progress feed
// consumed by the dashboard.
//
// The module owns schedules, respondent slots, the append-only dispatch
// attempt log and channel health statistics, and exposes HTTP handlers plus
// worker entrypoints for lifecycle transitions, dispatch cycles and scored
// response consumption.
package deliveryservice
