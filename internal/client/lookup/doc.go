// Package lookup resolves city names to coordinates and lists the streets
// around them using OpenStreetMap services (Nominatim and Overpass). A Redis
// backed decorator caches results between runs.
package lookup
