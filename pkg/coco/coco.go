// Package coco implements the COCO object detection annotation format.
//
// This package provides:
//
// - An object model for COCO detection documents (images, annotations, categories)
// - Functions for reading and writing COCO JSON files
// - An index for looking up images and their annotations by id
// - Validation of the id and reference invariants of a document
//
// Key Types:
//
// - Document: Top-level structure of a COCO annotation file
// - Image: One image entry, with pixel dimensions
// - Annotation: One object instance with an absolute [x, y, w, h] box
// - Category: A label of the dataset
// - Index: Lookups over a loaded Document
//
// Main Functions:
//
// - Load / Decode: Parse COCO JSON into a Document
// - Save / Encode: Serialize a Document as COCO JSON
// - Validate: Check that a Document is internally consistent
package coco
