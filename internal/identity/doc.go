// Package identity defines the (name, tag set) pair that names a metric instance.
//
// Tags are canonicalized by sorting them on key, so two identities built from
// the same name and the same tags compare equal regardless of the order in
// which the tags were supplied. Key returns the packed canonical form used as
// the lookup key by the processor's tables.
package identity
