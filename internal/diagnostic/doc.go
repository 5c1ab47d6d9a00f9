// Package diagnostic provides structured warnings and errors collected while
// turning an analysis snapshot into generated artifacts.
//
// Key capabilities:
//   - Identifier collision reports with the resolved replacement name
//   - Structural snapshot problems (duplicate fields, unnamed categories)
//   - Failed or empty categories carried through from analysis
package diagnostic
