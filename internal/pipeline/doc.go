// Package pipeline implements the layered request pipeline: an ordered
// stage registry, a route resolver, the traversal executor and the error
// translator.
//
// One traversal drives a request through stage inbound hooks, routing,
// interceptor pre-handle hooks and the handler, then back out through
// interceptor post-handle hooks, stage outbound hooks and interceptor
// after-completion hooks. Forward-phase failures and short-circuits jump
// straight into the cleanup phases so that every stage already entered gets
// its outbound hook and every interceptor past pre-handle gets its
// after-completion call.
package pipeline
