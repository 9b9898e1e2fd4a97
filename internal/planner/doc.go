// Package planner partitions an object into the ordered parts used by both
// multipart uploads and ranged downloads.
package planner
