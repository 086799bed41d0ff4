/*
Package passes holds the pass catalog: descriptors for every registered
analysis pass, their dependency declarations, their language overrides, and
the work units that implement them.

The catalog is populated at startup. Language support modules register their
passes and override rows into it; a module that is not linked in simply
contributes nothing, which narrows the catalog without being an error.
*/
package passes
