// Package taf parses Terminal Aerodrome Forecasts (TAFs), the fixed-format
// aviation weather bulletins issued for most towered airports.
//
// # Message Format
//
// A TAF as delivered by the NWS distribution network looks like this:
//
//	000
//	FTUS41 KTST 010020
//	TAFTST
//	TAF
//	KTST 010020Z 0100/0106 03005KT P6SM SKC
//	    FM010300 03010KT P6SM OVC010=
//
// The first four lines are the transmission preamble: a sequence number, the
// WMO heading (product class, originating center, day/hour/minute), the AFOS
// product identifier, and the product name. The preamble is optional here;
// stripped archive messages that begin directly with the header parse the
// same way, with an empty originating center.
//
// The header names the aerodrome (4-letter ICAO code), the issue time as
// DDHHMMZ, and the validity period as DDHH/DDHH. An AMD or COR marker flags
// amended or corrected reissues. The body is either the single word NIL (a
// no-content TAF) or an initial conditions group followed by any number of
// FMDDHHMM groups, each starting a new set of conditions. A group's end time
// is implicit: the start of the next FM group, or the end of the validity
// period for the last group. The message closes with "=".
//
// # Time Encoding
//
// TAF times carry only day-of-month, hour, and sometimes minute; the rest of
// the date is reconstructed relative to the issue date. An encoded day at or
// after the issue day means the same month; an earlier day means the next
// month (rolling into January of the next year when issued in December). In
// the DDHH form, hour 24 denotes midnight of the following day.
//
// # Units and Dialect
//
// This is the US/Canada dialect: visibility in statute miles, wind in knots,
// cloud bases in hundreds of feet AGL. Coverage codes map to sky fractions
// per AC 00-45H section 5.11.2.9.1. TEMPO, BECMG, and PROB change groups are
// not part of the grammar; weather phenomena codes (e.g. "-RA", "BR") are
// carried through uninterpreted.
//
// # Failure Semantics
//
// Parse never returns a Go error and never panics on malformed input: every
// grammar mismatch or domain-invariant violation (descending cloud layers,
// gust not exceeding sustained wind, out-of-range direction) becomes a
// *ParseError value carrying the offending message and, where available, a
// caret-marked snippet of the failure location.
package taf
