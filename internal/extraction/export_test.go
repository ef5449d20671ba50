package extraction

var ContentText = contentText
