package geometry

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// HittableList is an ordered collection of objects queried as one.
// It is built once before rendering and only read during it.
type HittableList struct {
	Objects []Hittable
}

// NewHittableList creates a list from the given objects
func NewHittableList(objects ...Hittable) *HittableList {
	return &HittableList{Objects: objects}
}

// Add appends an object to the list
func (l *HittableList) Add(object Hittable) {
	l.Objects = append(l.Objects, object)
}

// Len returns the number of objects in the list
func (l *HittableList) Len() int {
	return len(l.Objects)
}

// Hit returns the nearest hit among all objects
func (l *HittableList) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	hit, _, isHit := l.HitObject(ray, rayT)
	return hit, isHit
}

// HitObject returns the nearest hit and the object that produced it. Each
// object is queried with the upper bound tightened to the closest hit found
// so far.
func (l *HittableList) HitObject(ray core.Ray, rayT core.Interval) (*material.HitRecord, Hittable, bool) {
	var closestHit *material.HitRecord
	var closestObject Hittable
	closestSoFar := rayT.Max()

	for _, object := range l.Objects {
		if hit, isHit := object.Hit(ray, rayT.WithMax(closestSoFar)); isHit {
			closestSoFar = hit.T
			closestHit = hit
			closestObject = object
		}
	}

	return closestHit, closestObject, closestHit != nil
}
