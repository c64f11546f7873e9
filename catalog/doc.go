// Package catalog is the language-lesson catalog built on the query
// client: lessons, their vocabularies, and user roles.
//
// Every read goes through the shared cache and every write invalidates the
// affected views. A vocabulary change also invalidates the lessons, whose
// vocabulary counts it alters.
package catalog
