// Package classify decides what the crawler does with a raw href found on a
// page: follow it, ignore it, or treat it as a link that would end the
// browsing session.
//
// Classification is a pure function of the href and the Classifier's fixed
// lists, so classifying the same href twice always yields the same Decision.
package classify
