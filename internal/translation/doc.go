// Package translation translates text into any target language through an
// upstream model provider (OpenAI or Gemini). The model is chosen by the
// input type of the request, so text typed by a user and text recognised
// in an image can be served by different model tiers. A Cache avoids
// repeated upstream calls for identical requests.
package translation
