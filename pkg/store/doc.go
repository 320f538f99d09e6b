// Package store binds one configuration struct instance to its compiled
// conversion plan and serializes disk access to it. WriteTo holds the
// instance lock shared (encoding only reads the graph), ReadFrom holds it
// exclusive (decoding mutates the whole graph), so a save never observes a
// half-loaded object and a load never races a save.
package store
