// Package promote implements the filing workflow that moves STIX objects out
// of the unattached pool into categorized incident partitions, keeping the
// incident root object's reference lists consistent along the way. It also
// covers the related save paths for incident, company and user context.
package promote
