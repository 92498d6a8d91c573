// Package alarm bridges business events into durable notifications and
// real-time push.
//
// The Publisher persists first, then publishes to the broker channel;
// publish failures are logged and swallowed because the stored notification
// stays discoverable through the summaries query. The Dispatcher is the
// other side of the channel: one instance per process, pumping envelopes
// from the broker into the local connection hub.
package alarm
