// Package domain contains the core entities of the summary pipeline:
// summary requests and their lifecycle, transcript sources, transcripts,
// audio assets, summaries, and email delivery records. It is independent
// of any specific infrastructure or delivery mechanism.
package domain
