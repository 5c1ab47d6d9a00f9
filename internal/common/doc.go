// Package common holds small helpers shared by the schemadrift packages.
package common
