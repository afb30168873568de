// Package minefield implements the shared minesweeper field.
//
// There is one field per process. Every connected participant reveals and
// flags cells on the same grid, and every change is broadcast to all of them.
//
// Generation places mines by drawing uniform coordinates and retrying on
// duplicates, then computes each non-mine cell's neighbor count in a single
// pass. Counts are never recomputed afterwards.
//
// Reveal has two modes chosen by the target cell: a mine uncovers every mine
// on the field and leaves the rest untouched; any other cell is flood
// revealed, spreading through zero-count cells and stopping at numbered
// cells, revealed cells and the grid edge.
package minefield
