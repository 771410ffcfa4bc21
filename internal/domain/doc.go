// Package domain models OpenStreetMap XML elements and the nested documents
// they are shaped into before loading into a document store.
//
// # Data Source
//
// Input is an OSM XML extract as produced by the OpenStreetMap export tools
// or a Geofabrik/Overpass download. The root <osm> element holds <bounds>,
// <node>, <way> and <relation> children. Only nodes and ways are shaped;
// every other element yields no document.
//
// # OSM Data Conventions
//
// Element attributes:
//
//	id, visible                                     stored as top-level fields
//	version, changeset, timestamp, user, uid        grouped under "created"
//	lat, lon (nodes only)                           parsed into "pos": [lat, lon]
//
// Child elements:
//
//	<tag k="amenity" v="pharmacy"/>   free-form key/value, stored as a top-level field
//	<tag k="addr:street" v="..."/>    address parts, stored under "address"
//	<nd ref="305896090"/>             way member node ids, stored under "node_refs"
//
// Tag keys:
//
//	Keys carrying characters that cannot be used as a document field name
//	(= + / & < > ; ' " ? % # $ @ , . or whitespace) are dropped.
//	"addr:<part>" with a lowercase part becomes address[<part>].
//	"addr:street:name" style keys subdivide a street name and are dropped;
//	the combined "addr:street" value already carries them.
//	Any other key, including other colon keys such as "contact:phone",
//	is stored verbatim.
//
// # Cleaning
//
// When cleaning is enabled the shaper also normalizes a few known data
// quality problems: postcodes are stripped of spaces and must be six
// digits, amenity values are lower-cased and remapped ("pub" -> "bar"),
// and government abbreviations in names are spelled out.
package domain
