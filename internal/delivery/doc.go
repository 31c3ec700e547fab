package delivery

// Package delivery hands merged files to the user. DirSaver writes into the
// configured download directory; the desktop UI provides a dialog-based Saver.
